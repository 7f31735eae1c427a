package gtfs

import (
	"context"
	"log/slog"
	"time"

	"opentransit.org/internal/logging"
)

// DefaultRefreshInterval is how often a remote feed is fetched again.
const DefaultRefreshInterval = 24 * time.Hour

// Refresher re-imports a remote feed on a fixed schedule.
type Refresher struct {
	importer *Importer
	config   Config
	interval time.Duration
	logger   *slog.Logger
}

func NewRefresher(importer *Importer, config Config, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		importer: importer,
		config:   config,
		interval: interval,
		logger:   importer.logger,
	}
}

// Run blocks until ctx is done. Local files are never refreshed. A failed
// refresh keeps the previous catalog and is retried on the next tick.
func (r *Refresher) Run(ctx context.Context) error {
	if !IsRemoteSource(r.config.Source) {
		r.logger.Info("GTFS source is a local file, skipping periodic updates",
			slog.String("source", r.config.Source),
			slog.String("component", "gtfs_refresh"))
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.refresh(ctx)
		case <-ctx.Done():
			r.logger.Info("shutting down static GTFS updates", slog.String("component", "gtfs_refresh"))
			return nil
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := r.importer.Reimport(ctx, r.config); err != nil {
		logging.LogError(r.logger, "error updating GTFS data", err,
			slog.String("source", r.config.Source),
			slog.String("component", "gtfs_refresh"))
	}
}
