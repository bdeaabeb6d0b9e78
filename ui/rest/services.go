package rest

import (
	domainService "github.com/AzielCF/az-console/domains/service"
	"github.com/AzielCF/az-console/services"
	"github.com/gofiber/fiber/v2"
)

type Services struct {
	Service domainService.ILoggingUsecase
}

// LoggingResponse carries the stored form and the section rendered from it.
type LoggingResponse struct {
	Form  domainService.ServiceForm `json:"form"`
	Panel services.LoggingPanel     `json:"panel"`
}

func InitRestServices(router fiber.Router, service domainService.ILoggingUsecase) Services {
	handler := Services{Service: service}

	group := router.Group("/api/services/:id/logging")
	group.Get("/", handler.GetLogging)
	group.Put("/", handler.UpdateLogging)
	group.Post("/toggle", handler.ToggleLogging)

	return handler
}

func (h *Services) render(c *fiber.Ctx, message string, form domainService.ServiceForm, editing bool) error {
	return success(c, fiber.StatusOK, message, LoggingResponse{
		Form:  form,
		Panel: services.LoggingSection(form, editing, services.SidebarID),
	})
}

func (h *Services) GetLogging(c *fiber.Ctx) error {
	form, err := h.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return h.render(c, "Logging settings retrieved", form, c.QueryBool("editing", false))
}

func (h *Services) UpdateLogging(c *fiber.Ctx) error {
	var request domainService.UpdateLogConfigRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, "invalid body")
	}
	request.ServiceID = c.Params("id")

	form, err := h.Service.Update(c.UserContext(), request)
	if err != nil {
		return respondError(c, err)
	}
	return h.render(c, "Logging settings updated", form, true)
}

func (h *Services) ToggleLogging(c *fiber.Ctx) error {
	form, err := h.Service.Toggle(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return h.render(c, "Body capture toggled", form, true)
}
