// Package catalogdb stores the transit catalog in SQLite and serves it through
// the transit repository contracts.
package catalogdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"opentransit.org/internal/appconf"
	"opentransit.org/internal/logging"
	"opentransit.org/internal/transit"
)

//go:embed schema.sql
var ddl string

var (
	// ErrInMemoryRequired is returned when a test environment asks for a
	// database file.
	ErrInMemoryRequired = errors.New("test environment requires an in-memory database")
	ErrUnknownNetwork   = errors.New("unknown network")
)

// Client is the main entry point for the library
type Client struct {
	config  Config
	logger  *slog.Logger
	DB      *sql.DB
	Queries *Queries
}

// NewClient opens the database and applies the schema. A nil logger falls
// back to slog.Default.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := createDB(config)
	if err != nil {
		return nil, err
	}
	if config.verbose {
		logger.Info("catalog database ready",
			slog.String("db_path", config.DBPath),
			slog.String("component", "catalogdb"))
	}

	return &Client{
		config:  config,
		logger:  logger,
		DB:      db,
		Queries: New(db),
	}, nil
}

func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && !config.inMemory() {
		return nil, fmt.Errorf("%w: got %s", ErrInMemoryRequired, config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if config.inMemory() {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := performDatabaseMigration(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}
	return db, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmed); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmed, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// Repositories returns repository views over this database.
func (c *Client) Repositories() transit.Repositories {
	return transit.Repositories{
		Networks: &NetworksRepository{queries: c.Queries},
		Routes:   &RoutesRepository{queries: c.Queries},
		Stops:    &StopsRepository{queries: c.Queries},
	}
}

// NetworkRoute places a route under its network for import.
type NetworkRoute struct {
	NetworkID uuid.UUID
	Route     transit.Route
}

// Catalog is a complete set of records written by ImportCatalog.
type Catalog struct {
	Networks []transit.Network
	Routes   []NetworkRoute
	Stops    []transit.Stop
}

// ImportCatalog writes catalog in one transaction; nothing is stored if any
// record is rejected.
func (c *Client) ImportCatalog(ctx context.Context, catalog Catalog) error {
	return c.writeCatalog(ctx, catalog, false)
}

// ReplaceCatalog swaps the stored catalog for catalog atomically. Readers see
// either the old or the new records.
func (c *Client) ReplaceCatalog(ctx context.Context, catalog Catalog) error {
	return c.writeCatalog(ctx, catalog, true)
}

func (c *Client) writeCatalog(ctx context.Context, catalog Catalog, replace bool) error {
	startTime := time.Now()

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "import_catalog")

	qtx := c.Queries.WithTx(tx)
	if replace {
		if err := qtx.DeleteCatalog(ctx); err != nil {
			return fmt.Errorf("error clearing catalog: %w", err)
		}
	}
	for _, n := range catalog.Networks {
		if err := insertNetwork(ctx, qtx, n); err != nil {
			return err
		}
	}
	for _, r := range catalog.Routes {
		if err := insertRoute(ctx, qtx, r.NetworkID, r.Route); err != nil {
			return err
		}
	}
	for _, s := range catalog.Stops {
		if err := insertStop(ctx, qtx, s); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	logging.LogOperation(c.logger, "catalog_imported",
		slog.Int("networks", len(catalog.Networks)),
		slog.Int("routes", len(catalog.Routes)),
		slog.Int("stops", len(catalog.Stops)),
		slog.Bool("replace", replace),
		slog.Duration("duration", time.Since(startTime)),
		slog.String("component", "catalogdb"))
	return nil
}

// AddNetwork stores a single network.
func (c *Client) AddNetwork(network transit.Network) error {
	return insertNetwork(context.Background(), c.Queries, network)
}

// AddRoute stores a single route under an existing network.
func (c *Client) AddRoute(networkID uuid.UUID, route transit.Route) error {
	return insertRoute(context.Background(), c.Queries, networkID, route)
}

// AddStop stores a single stop.
func (c *Client) AddStop(stop transit.Stop) error {
	return insertStop(context.Background(), c.Queries, stop)
}

func insertNetwork(ctx context.Context, q *Queries, network transit.Network) error {
	extra, err := encodeExtra(network.ImporterExtra)
	if err != nil {
		return fmt.Errorf("network %s: %w", network.ID, err)
	}
	err = q.CreateNetwork(ctx, CreateNetworkParams{
		ID:            network.ID.String(),
		Name:          network.Name,
		ImporterExtra: extra,
	})
	if err != nil {
		return fmt.Errorf("unable to create network %q: %w", network.Name, err)
	}
	return nil
}

func insertRoute(ctx context.Context, q *Queries, networkID uuid.UUID, route transit.Route) error {
	exists, err := q.NetworkExists(ctx, networkID.String())
	if err != nil {
		return fmt.Errorf("route %s: %w", route.ID, err)
	}
	if !exists {
		return fmt.Errorf("route %s: %w %s", route.ID, ErrUnknownNetwork, networkID)
	}

	extra, err := encodeExtra(route.ImporterExtra)
	if err != nil {
		return fmt.Errorf("route %s: %w", route.ID, err)
	}
	err = q.CreateRoute(ctx, CreateRouteParams{
		ID:            route.ID.String(),
		NetworkID:     networkID.String(),
		Number:        route.Number,
		Title:         route.Title,
		Type:          string(route.Type),
		ImporterExtra: extra,
	})
	if err != nil {
		return fmt.Errorf("unable to create route %s: %w", route.ID, err)
	}
	return nil
}

func insertStop(ctx context.Context, q *Queries, stop transit.Stop) error {
	extra, err := encodeExtra(stop.ImporterExtra)
	if err != nil {
		return fmt.Errorf("stop %s: %w", stop.ID, err)
	}
	err = q.CreateStop(ctx, CreateStopParams{
		ID:            stop.ID.String(),
		Name:          stop.Name,
		Lat:           stop.Lat.String(),
		Lon:           stop.Lon.String(),
		LatApprox:     stop.Lat.InexactFloat64(),
		LonApprox:     stop.Lon.InexactFloat64(),
		ImporterExtra: extra,
	})
	if err != nil {
		return fmt.Errorf("unable to create stop %s: %w", stop.ID, err)
	}
	return nil
}

// TableCounts reports the number of rows per catalog table.
func (c *Client) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"networks", "routes", "stops"} {
		var count int
		err := c.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
		if err != nil {
			return nil, err
		}
		counts[table] = count
	}
	return counts, nil
}
