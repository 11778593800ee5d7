package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ai-query-router-be/internal/dto"
	"ai-query-router-be/internal/pkg/serverutils"
	"ai-query-router-be/internal/service"
)

type IRouteController interface {
	RegisterRoutes(r fiber.Router)
	Route(ctx *fiber.Ctx) error
}

type routeController struct {
	service service.IRouteService
}

func NewRouteController(service service.IRouteService) IRouteController {
	return &routeController{service: service}
}

func (c *routeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/route/v1")
	h.Post("", c.Route)
}

func (c *routeController) Route(ctx *fiber.Ctx) error {
	var req dto.RouteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Route(ctx.UserContext(), &req)
	if errors.Is(err, service.ErrInvalidQuery) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success route query", res))
}
