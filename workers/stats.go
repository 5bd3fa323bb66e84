// Package workers holds background loops that run alongside the API.
package workers

import (
	"context"
	"log/slog"
	"time"

	"saferoute-api/metrics"
	"saferoute-api/models"
	"saferoute-api/services"
)

// StatsSource reports current hazard counts per status.
type StatsSource interface {
	Stats(ctx context.Context) (services.HazardStats, error)
}

// StatusGaugeWorker refreshes the hazards-by-status gauge on a fixed interval.
type StatusGaugeWorker struct {
	source   StatsSource
	metrics  *metrics.Metrics
	logger   *slog.Logger
	interval time.Duration
}

func NewStatusGaugeWorker(source StatsSource, m *metrics.Metrics, logger *slog.Logger, interval time.Duration) *StatusGaugeWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatusGaugeWorker{source: source, metrics: m, logger: logger, interval: interval}
}

// Run blocks until ctx is cancelled. The first cycle runs immediately.
func (w *StatusGaugeWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "status gauge worker running", "interval", w.interval.String())
	w.RunCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunCycle(ctx)
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "status gauge worker shutting down")
			return nil
		}
	}
}

func (w *StatusGaugeWorker) RunCycle(ctx context.Context) {
	start := time.Now()
	defer w.metrics.ObserveStatsCycle(start)

	stats, err := w.source.Stats(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "stats cycle failed", "error", err)
		return
	}

	w.metrics.SetHazardsByStatus(models.StatusPendingAuthority.String(), stats.PendingAuthority)
	w.metrics.SetHazardsByStatus(models.StatusVerified.String(), stats.Verified)
	w.metrics.SetHazardsByStatus(models.StatusResolved.String(), stats.Resolved)
	w.logger.DebugContext(ctx, "stats cycle complete",
		"pending_authority", stats.PendingAuthority,
		"verified", stats.Verified,
		"resolved", stats.Resolved,
	)
}
