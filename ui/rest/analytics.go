package rest

import (
	"context"

	"github.com/AzielCF/az-console/analytics"
	"github.com/AzielCF/az-console/ui/rest/middleware"
	"github.com/AzielCF/az-console/workspace/paginator"
	"github.com/gofiber/fiber/v2"
)

// EventHistory lists recently stored events.
type EventHistory interface {
	Recent(ctx context.Context, eventContext string, limit int) ([]analytics.Event, error)
}

type Analytics struct {
	Tracker analytics.Tracker
	History EventHistory
}

// InitRestAnalytics registers event ingestion. history may be nil when events
// are not persisted.
func InitRestAnalytics(router fiber.Router, tracker analytics.Tracker, history EventHistory) Analytics {
	handler := Analytics{Tracker: tracker, History: history}

	group := router.Group("/api/analytics")
	group.Post("/track", handler.Track)
	group.Get("/events", handler.Recent)

	return handler
}

func (h *Analytics) Track(c *fiber.Ctx) error {
	var request paginator.TrackRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, "invalid body")
	}
	if request.Context == "" {
		return badRequest(c, "context is required")
	}
	if request.Name == "" {
		request.Name = analytics.EventSortChanged
	}

	h.Tracker.Track(c.UserContext(), analytics.Event{
		Name:      request.Name,
		Context:   request.Context,
		SortValue: request.SortValue,
		Caller:    middleware.CallerOf(c),
	})
	return success(c, fiber.StatusAccepted, "Event accepted", nil)
}

func (h *Analytics) Recent(c *fiber.Ctx) error {
	if h.History == nil {
		return success(c, fiber.StatusOK, "Event history disabled", []analytics.Event{})
	}
	events, err := h.History.Recent(c.UserContext(), c.Query("context", analytics.ContextWorkspace), c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Events retrieved", events)
}
