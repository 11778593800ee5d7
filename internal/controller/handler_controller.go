package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ai-query-router-be/internal/pkg/serverutils"
	"ai-query-router-be/internal/service"
)

type IHandlerController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Enable(ctx *fiber.Ctx) error
	Disable(ctx *fiber.Ctx) error
}

type handlerController struct {
	service   service.IHandlerService
	jwtSecret string
}

func NewHandlerController(service service.IHandlerService, jwtSecret string) IHandlerController {
	return &handlerController{service: service, jwtSecret: jwtSecret}
}

func (c *handlerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/handler/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("", c.List)
	h.Put(":category/enable", c.Enable)
	h.Put(":category/disable", c.Disable)
}

func (c *handlerController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get handlers", c.service.List()))
}

func (c *handlerController) Enable(ctx *fiber.Ctx) error {
	return c.setEnabled(ctx, true)
}

func (c *handlerController) Disable(ctx *fiber.Ctx) error {
	return c.setEnabled(ctx, false)
}

func (c *handlerController) setEnabled(ctx *fiber.Ctx, enabled bool) error {
	res, err := c.service.SetEnabled(ctx.Params("category"), enabled)
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrHandlerUnavailable):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		return err
	}

	message := "Success disable handler"
	if enabled {
		message = "Success enable handler"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}
