package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"sales-bot/services"
)

// StatusHandler answers liveness checks with catalog counts.
type StatusHandler struct {
	store      services.CatalogStore
	staleAfter time.Duration
}

func NewStatusHandler(store services.CatalogStore, staleAfter time.Duration) *StatusHandler {
	return &StatusHandler{store: store, staleAfter: staleAfter}
}

func (h *StatusHandler) Status(c *fiber.Ctx) error {
	total, err := h.store.Count(c.Context())
	if err != nil {
		slog.Error("Failed to count products for status", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
		})
	}

	stale, err := h.store.StaleCount(c.Context(), time.Now().Add(-h.staleAfter))
	if err != nil {
		slog.Error("Failed to count stale products for status", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
		})
	}

	return c.JSON(fiber.Map{
		"status":         "ok",
		"service":        "sales-bot",
		"total_products": total,
		"stale_count":    stale,
	})
}
