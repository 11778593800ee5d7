package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection and blocks until the peer goes away
func ServeWs(hub *Hub, c *websocket.Conn, category string) {
	client := &Client{Hub: hub, Conn: c, Category: category, Send: make(chan []byte, 64)}
	select {
	case hub.register <- client:
	case <-hub.done:
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
