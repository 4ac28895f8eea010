package core

// scheduler.go re-merges the configured export files in the background so
// the server always has a recent run when exports are refreshed on disk.
//
// The scheduler is long-running and context-aware for graceful shutdown. A
// failed refresh is logged and retried at the next tick; it never stops the
// loop.

import (
	"context"
	"log/slog"
	"time"
)

// RefreshConfig holds the periodic re-merge settings.
type RefreshConfig struct {
	FullPath  string
	LightPath string
	Interval  time.Duration
}

// StartRefreshScheduler merges the configured files immediately, then every
// Interval, until ctx is cancelled. It returns at once when Interval is not
// positive.
func (s *Service) StartRefreshScheduler(ctx context.Context, cfg RefreshConfig) {
	if cfg.Interval <= 0 {
		return
	}

	slog.Info("refresh scheduler started",
		"full", cfg.FullPath,
		"light", cfg.LightPath,
		"interval", cfg.Interval,
	)

	s.runRefresh(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runRefresh(ctx, cfg)
		}
	}
}

// runRefresh performs one scheduled merge.
func (s *Service) runRefresh(ctx context.Context, cfg RefreshConfig) {
	start := time.Now()

	run, err := s.MergeFiles(ctx, TriggerSchedule, cfg.FullPath, cfg.LightPath)
	if err != nil {
		slog.Error("scheduled merge failed", "error", err, "code", MapError(err).Code)
		return
	}

	slog.Info("scheduled merge completed",
		"run_id", run.ID,
		"rows", run.Stats.Rows,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
