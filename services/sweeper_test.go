package services

import (
	"context"
	"testing"
	"time"

	"sales-bot/models"
)

const day = 24 * time.Hour

func testSweeper(store CatalogStore) *Sweeper {
	return NewSweeper(store, 12*time.Hour, 60*day, 120*day)
}

func TestRunSweep_DeletesStaleUnsold(t *testing.T) {
	store := newMemCatalog()
	ctx := context.Background()
	now := time.Now()

	store.seed(models.Product{
		AffiliateLink: "http://x/old-unsold",
		Title:         "Old Unsold",
		Active:        true,
		SaleCount:     0,
		UpdatedAt:     now.Add(-130 * day),
	})
	store.seed(models.Product{
		AffiliateLink: "http://x/old-sold",
		Title:         "Old Sold",
		Active:        true,
		SaleCount:     3,
		UpdatedAt:     now.Add(-130 * day),
	})
	store.seed(models.Product{
		AffiliateLink: "http://x/fresh",
		Title:         "Fresh",
		Active:        true,
		SaleCount:     0,
		UpdatedAt:     now.Add(-time.Hour),
	})

	_, deleted, err := testSweeper(store).RunSweep(ctx)
	if err != nil {
		t.Fatalf("RunSweep() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if p, _ := store.Get(ctx, "http://x/old-unsold"); p != nil {
		t.Error("stale unsold product should be gone after sweep")
	}
	if p, _ := store.Get(ctx, "http://x/old-sold"); p == nil {
		t.Error("product with recorded sales must never be deleted, regardless of age")
	}
	if p, _ := store.Get(ctx, "http://x/fresh"); p == nil {
		t.Error("fresh product should survive the sweep")
	}
}

func TestRunSweep_ArchivesBeforeDeleting(t *testing.T) {
	store := newMemCatalog()
	ctx := context.Background()
	now := time.Now()

	store.seed(models.Product{
		AffiliateLink: "http://x/aging",
		Title:         "Aging",
		Active:        true,
		SaleCount:     0,
		UpdatedAt:     now.Add(-70 * day), // past archive threshold, before delete threshold
	})
	store.seed(models.Product{
		AffiliateLink: "http://x/aging-sold",
		Title:         "Aging Sold",
		Active:        true,
		SaleCount:     1,
		UpdatedAt:     now.Add(-70 * day),
	})

	archived, deleted, err := testSweeper(store).RunSweep(ctx)
	if err != nil {
		t.Fatalf("RunSweep() error = %v", err)
	}
	if archived != 1 || deleted != 0 {
		t.Errorf("archived=%d deleted=%d, want 1/0", archived, deleted)
	}

	// Archived product drops out of listings but the row survives
	p, _ := store.Get(ctx, "http://x/aging")
	if p == nil {
		t.Fatal("archived product row should still exist")
	}
	if p.Active {
		t.Error("archived product should be inactive")
	}

	listed, _ := store.List(ctx, 10, true)
	for _, lp := range listed {
		if lp.AffiliateLink == "http://x/aging" {
			t.Error("archived product must not appear in active listings")
		}
	}

	if p, _ := store.Get(ctx, "http://x/aging-sold"); p == nil || !p.Active {
		t.Error("product with sales must not be archived")
	}
}

func TestRunSweep_Idempotent(t *testing.T) {
	store := newMemCatalog()
	ctx := context.Background()
	now := time.Now()

	store.seed(models.Product{
		AffiliateLink: "http://x/old",
		Title:         "Old",
		Active:        true,
		SaleCount:     0,
		UpdatedAt:     now.Add(-130 * day),
	})

	sweeper := testSweeper(store)

	if _, deleted, err := sweeper.RunSweep(ctx); err != nil || deleted != 1 {
		t.Fatalf("first sweep: deleted=%d err=%v, want 1/nil", deleted, err)
	}

	archived, deleted, err := sweeper.RunSweep(ctx)
	if err != nil {
		t.Fatalf("second sweep error = %v", err)
	}
	if archived != 0 || deleted != 0 {
		t.Errorf("second sweep archived=%d deleted=%d, want 0/0 (no-op without new ingestion)", archived, deleted)
	}
}
