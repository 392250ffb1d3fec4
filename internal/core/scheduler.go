package core

// scheduler.go runs background maintenance for the edit journal.
//
// The pruner deletes journal entries and snapshot rows older than the
// retention window. It runs once on start and then every interval until the
// context is cancelled. A failed run is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// JournalPruner deletes expired journal data.
type JournalPruner interface {
	PruneEdits(ctx context.Context, before time.Time) (int64, error)
	PruneSnapshots(ctx context.Context, before time.Time) (int64, error)
}

// PruneConfig holds configuration for the journal pruner.
// Zero values fall back to the defaults.
type PruneConfig struct {
	Retention time.Duration // Age after which entries are deleted (default: 90 days)
	Interval  time.Duration // How often to run (default: 24h)
}

const (
	defaultRetention     = 90 * 24 * time.Hour
	defaultPruneInterval = 24 * time.Hour
)

func (c PruneConfig) withDefaults() PruneConfig {
	if c.Retention <= 0 {
		c.Retention = defaultRetention
	}
	if c.Interval <= 0 {
		c.Interval = defaultPruneInterval
	}
	return c
}

// StartJournalPruner blocks, pruning p on every interval until ctx is done.
// Run it in its own goroutine.
func (s *Service) StartJournalPruner(ctx context.Context, p JournalPruner, cfg PruneConfig) {
	cfg = cfg.withDefaults()
	slog.Info("journal pruner started",
		"retention", cfg.Retention.String(),
		"interval", cfg.Interval.String(),
	)

	s.runPruneJob(ctx, p, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("journal pruner stopped")
			return
		case <-ticker.C:
			s.runPruneJob(ctx, p, cfg)
		}
	}
}

// runPruneJob performs one prune cycle and reports what it deleted.
func (s *Service) runPruneJob(ctx context.Context, p JournalPruner, cfg PruneConfig) (edits, snapshots int64) {
	start := time.Now()
	cutoff := s.now().Add(-cfg.Retention)

	edits, err := p.PruneEdits(ctx, cutoff)
	if err != nil {
		slog.Error("prune edits failed", "error", err)
	}

	snapshots, err = p.PruneSnapshots(ctx, cutoff)
	if err != nil {
		slog.Error("prune snapshots failed", "error", err)
	}

	slog.Info("journal prune completed",
		"edits_deleted", edits,
		"snapshots_deleted", snapshots,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return edits, snapshots
}
