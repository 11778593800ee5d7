package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/serverutils"
	ws "ai-query-router-be/internal/websocket"
)

type IStreamController interface {
	RegisterRoutes(r fiber.Router)
}

type streamController struct {
	hub       *ws.Hub
	jwtSecret string
}

func NewStreamController(hub *ws.Hub, jwtSecret string) IStreamController {
	return &streamController{hub: hub, jwtSecret: jwtSecret}
}

// RegisterRoutes exposes GET /report/v1/stream?category=NAME as a websocket of routing events
func (c *streamController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/report/v1/stream")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Use(func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		if raw := ctx.Query("category"); raw != "" {
			category, err := entity.ParseCategory(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			ctx.Locals("category", string(category))
		}
		return ctx.Next()
	})
	h.Get("", websocket.New(func(conn *websocket.Conn) {
		category, _ := conn.Locals("category").(string)
		ws.ServeWs(c.hub, conn, category)
	}))
}
