package services

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically reclaims stale, never-sold catalog rows. The policy
// has two stages: archive (active=false) after ArchiveAfter, hard delete
// after DeleteAfter. A row with a positive sale counter is exempt from both.
type Sweeper struct {
	store        CatalogStore
	interval     time.Duration
	archiveAfter time.Duration
	deleteAfter  time.Duration
}

func NewSweeper(store CatalogStore, interval, archiveAfter, deleteAfter time.Duration) *Sweeper {
	return &Sweeper{
		store:        store,
		interval:     interval,
		archiveAfter: archiveAfter,
		deleteAfter:  deleteAfter,
	}
}

// Start runs the sweep loop until ctx is cancelled. A failed sweep is
// logged and retried on the next tick; it never takes the process down.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Retention sweeper stopped")
				return
			case <-ticker.C:
				sweepCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				archived, deleted, err := s.RunSweep(sweepCtx)
				if err != nil {
					slog.Error("Retention sweep failed", "error", err)
				} else if archived > 0 || deleted > 0 {
					slog.Info("Retention sweep completed", "archived", archived, "deleted", deleted)
				}
				cancel()
			}
		}
	}()

	slog.Info("Retention sweeper started",
		"interval", s.interval,
		"archiveAfter", s.archiveAfter,
		"deleteAfter", s.deleteAfter,
	)
}

// RunSweep executes one delete-then-archive pass. Each stage is a single
// bounded store operation, so a failure leaves nothing half-applied beyond
// what already committed. Running it again with no intervening ingestion is
// a no-op.
func (s *Sweeper) RunSweep(ctx context.Context) (archived, deleted int64, err error) {
	now := time.Now()

	deleted, err = s.store.DeleteStale(ctx, now.Add(-s.deleteAfter))
	if err != nil {
		return 0, 0, err
	}

	archived, err = s.store.ArchiveStale(ctx, now.Add(-s.archiveAfter))
	if err != nil {
		return 0, deleted, err
	}

	return archived, deleted, nil
}
