package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"sales-bot/models"
)

// ProductRecord is one entry of a producer batch.
type ProductRecord struct {
	Title         string  `json:"title"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency,omitempty"`
	Description   string  `json:"description,omitempty"`
	Category      string  `json:"category,omitempty"`
	AffiliateLink string  `json:"affiliate_link"`
	Source        string  `json:"source,omitempty"`
}

// RejectedRecord reports one skipped batch entry.
type RejectedRecord struct {
	Index  int    `json:"index"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
}

// BatchResult summarizes one applied ingestion batch.
type BatchResult struct {
	Inserted int              `json:"inserted"`
	Updated  int              `json:"updated"`
	Rejected []RejectedRecord `json:"rejected,omitempty"`
}

// Synchronizer applies producer batches to the catalog.
type Synchronizer struct {
	store CatalogStore
}

func NewSynchronizer(store CatalogStore) *Synchronizer {
	return &Synchronizer{store: store}
}

// ApplyBatch upserts each record of a batch into the catalog. Records are
// decoded one by one so a malformed entry is skipped and reported instead
// of failing the whole batch. Every applied record gets the same
// synchronization timestamp, which the retention sweeper later reads.
func (s *Synchronizer) ApplyBatch(ctx context.Context, raw []json.RawMessage) (BatchResult, error) {
	result := BatchResult{}
	syncedAt := time.Now()

	for i, entry := range raw {
		var record ProductRecord
		if err := json.Unmarshal(entry, &record); err != nil {
			result.Rejected = append(result.Rejected, RejectedRecord{
				Index:  i,
				Reason: fmt.Sprintf("malformed record: %v", err),
			})
			continue
		}

		if reason := validateRecord(record); reason != "" {
			result.Rejected = append(result.Rejected, RejectedRecord{
				Index:  i,
				Key:    record.AffiliateLink,
				Reason: reason,
			})
			continue
		}

		// Default optional fields
		if record.Currency == "" {
			record.Currency = "USD"
		}

		product := models.Product{
			AffiliateLink: record.AffiliateLink,
			Title:         record.Title,
			Price:         record.Price,
			Currency:      record.Currency,
			Description:   record.Description,
			Category:      record.Category,
			Source:        record.Source,
			Active:        true,
			UpdatedAt:     syncedAt,
		}

		inserted, err := s.store.Upsert(ctx, product)
		if err != nil {
			// Persistence failure is retryable, not a bad record: surface it
			return result, fmt.Errorf("upsert %q: %w", record.AffiliateLink, err)
		}

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	slog.Info("Ingestion batch applied",
		"records", len(raw),
		"inserted", result.Inserted,
		"updated", result.Updated,
		"rejected", len(result.Rejected),
	)

	return result, nil
}

func validateRecord(record ProductRecord) string {
	if record.AffiliateLink == "" {
		return "missing affiliate_link"
	}
	if record.Title == "" {
		return "missing title"
	}
	if record.Price < 0 {
		return "negative price"
	}
	return ""
}
