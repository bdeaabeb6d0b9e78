package rest

import (
	"github.com/AzielCF/az-console/domains/health"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service health.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service health.IHealthUsecase) Health {
	handler := Health{Service: service}

	group := app.Group("/api/health")
	group.Get("/status", handler.GetStatus)
	group.Post("/check-all", handler.CheckAll)
	group.Post("/:entity/check", handler.Check)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	records, err := h.Service.GetStatus(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Health status retrieved", records)
}

func (h *Health) CheckAll(c *fiber.Ctx) error {
	records, err := h.Service.CheckAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "All components checked", records)
}

func (h *Health) Check(c *fiber.Ctx) error {
	record, err := h.Service.Check(c.UserContext(), health.EntityType(c.Params("entity")))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Health check completed", record)
}
