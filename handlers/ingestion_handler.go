package handlers

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"sales-bot/services"
)

// IngestionHandler exposes the producer-facing catalog endpoints.
type IngestionHandler struct {
	synchronizer *services.Synchronizer
	store        services.CatalogStore
}

func NewIngestionHandler(synchronizer *services.Synchronizer, store services.CatalogStore) *IngestionHandler {
	return &IngestionHandler{synchronizer: synchronizer, store: store}
}

type ingestionRequest struct {
	Products []json.RawMessage `json:"products"`
}

// IngestProducts applies one authenticated product batch.
func (h *IngestionHandler) IngestProducts(c *fiber.Ctx) error {
	var req ingestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":     false,
			"reason": "malformed JSON body",
		})
	}

	if len(req.Products) == 0 {
		return c.JSON(fiber.Map{
			"ok":     false,
			"reason": "empty payload",
		})
	}

	result, err := h.synchronizer.ApplyBatch(c.Context(), req.Products)
	if err != nil {
		slog.Error("Ingestion batch failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"ok":     false,
			"reason": "persistence error, retry the batch",
		})
	}

	return c.JSON(fiber.Map{
		"ok":       true,
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"rejected": result.Rejected,
	})
}

type saleRequest struct {
	AffiliateLink string `json:"affiliate_link"`
	Title         string `json:"title,omitempty"`
}

// RecordSale increments the sale counter for a product, creating it on the
// first sale.
func (h *IngestionHandler) RecordSale(c *fiber.Ctx) error {
	var req saleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":     false,
			"reason": "malformed JSON body",
		})
	}

	if req.AffiliateLink == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":     false,
			"reason": "missing affiliate_link",
		})
	}

	count, err := h.store.RecordSale(c.Context(), req.AffiliateLink, req.Title)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"ok":     false,
			"reason": "persistence error, retry",
		})
	}

	return c.JSON(fiber.Map{
		"ok":         true,
		"sale_count": count,
	})
}
