// Package gtfs fills the catalog database from a static GTFS feed.
package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"opentransit.org/catalogdb"
	"opentransit.org/internal/logging"
)

// Config describes one import run.
type Config struct {
	// Source is a local zip path or an http(s) URL.
	Source  string
	FeedID  string
	Verbose bool
}

// Summary counts what an import stored and left out.
type Summary struct {
	Networks int
	Routes   int
	Stops    int
	Skipped  int
	Duration time.Duration
}

// Importer writes GTFS feeds into a catalog database.
type Importer struct {
	client     *catalogdb.Client
	httpClient *http.Client
	logger     *slog.Logger
}

func NewImporter(client *catalogdb.Client, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		client:     client,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// Import loads config.Source, maps it and adds the result in a single
// transaction.
func (i *Importer) Import(ctx context.Context, config Config) (Summary, error) {
	return i.run(ctx, config, false)
}

// Reimport replaces the stored catalog with the current contents of
// config.Source.
func (i *Importer) Reimport(ctx context.Context, config Config) (Summary, error) {
	return i.run(ctx, config, true)
}

func (i *Importer) run(ctx context.Context, config Config, replace bool) (Summary, error) {
	startTime := time.Now()

	static, err := loadGTFSData(ctx, i.httpClient, config.Source, i.logger)
	if err != nil {
		return Summary{}, err
	}
	if config.Verbose {
		i.logger.Info("retrieved static data",
			slog.String("source", config.Source),
			slog.Int("warnings", len(static.Warnings)),
			slog.Int("agencies", len(static.Agencies)),
			slog.Int("routes", len(static.Routes)),
			slog.Int("stops", len(static.Stops)),
			slog.String("component", "gtfs_import"))
	}

	catalog, warnings := MapStatic(static, MapOptions{FeedID: config.FeedID})
	for _, w := range warnings {
		i.logger.Warn("gtfs record skipped",
			slog.String("kind", w.Kind),
			slog.String("gtfs_id", w.GTFSID),
			slog.String("reason", w.Reason),
			slog.String("component", "gtfs_import"))
	}

	store := i.client.ImportCatalog
	if replace {
		store = i.client.ReplaceCatalog
	}
	if err := store(ctx, catalog); err != nil {
		return Summary{}, fmt.Errorf("error storing GTFS catalog: %w", err)
	}

	summary := Summary{
		Networks: len(catalog.Networks),
		Routes:   len(catalog.Routes),
		Stops:    len(catalog.Stops),
		Skipped:  len(warnings),
		Duration: time.Since(startTime),
	}
	logging.LogOperation(i.logger, "gtfs_data_imported",
		slog.String("source", config.Source),
		slog.Int("networks", summary.Networks),
		slog.Int("routes", summary.Routes),
		slog.Int("stops", summary.Stops),
		slog.Int("skipped", summary.Skipped),
		slog.Duration("duration", summary.Duration),
		slog.String("component", "gtfs_import"))
	return summary, nil
}
