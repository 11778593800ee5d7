package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"ai-query-router-be/internal/pkg/serverutils"
	"ai-query-router-be/internal/service"
)

type IReportController interface {
	RegisterRoutes(r fiber.Router)
	Summary(ctx *fiber.Ctx) error
	Live(ctx *fiber.Ctx) error
}

type reportController struct {
	reports  service.IReportService
	counters service.IConsumerService
}

func NewReportController(reports service.IReportService, counters service.IConsumerService) IReportController {
	return &reportController{reports: reports, counters: counters}
}

func (c *reportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/report/v1")
	h.Get("summary", c.Summary)
	h.Get("live", c.Live)
}

func (c *reportController) Summary(ctx *fiber.Ctx) error {
	window := service.DefaultReportWindow
	if raw := ctx.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "window must be a positive duration such as 24h")
		}
		window = parsed
	}

	res, err := c.reports.Summary(ctx.UserContext(), window)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get routing summary", res))
}

func (c *reportController) Live(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get live counters", c.counters.Snapshot()))
}
