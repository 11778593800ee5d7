package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/pkg/events"
)

// outbound is one serialized event plus the category clients may filter on
type outbound struct {
	category string
	data     []byte
}

// Hub fans routing events out to connected websocket clients.
// It implements events.Publisher so it can sit next to the other buses.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run owns the client set until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			return nil

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"category": client.Category,
				"clients":  len(h.clients),
			})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.Category != "" && client.Category != msg.category {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					h.logger.Warn("Hub", "Client send buffer full, dropping client", nil)
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}

// Publish queues an event for broadcast. A full queue drops the event.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(map[string]interface{}{
		"type": event.EventType(),
		"data": event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	category, _ := event.Payload()["primary_category"].(string)
	select {
	case h.broadcast <- outbound{category: category, data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("websocket hub queue full, event dropped")
	}
}
