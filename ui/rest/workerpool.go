package rest

import (
	"github.com/AzielCF/az-console/pkg/eventworker"
	"github.com/gofiber/fiber/v2"
)

// StatsSource reports the state of a worker pool.
type StatsSource interface {
	GetStats() eventworker.PoolStats
}

// InitRestWorkerPool exposes the background event pool statistics.
func InitRestWorkerPool(app fiber.Router, pool StatsSource) {
	app.Get("/api/workers/events/stats", func(c *fiber.Ctx) error {
		return GetEventPoolStats(c, pool)
	})
}

// GetEventPoolStats returns real-time event pool statistics
func GetEventPoolStats(c *fiber.Ctx, pool StatsSource) error {
	if pool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Event worker pool not initialized",
		})
	}
	return c.JSON(pool.GetStats())
}
