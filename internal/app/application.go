package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/graph-gophers/graphql-go"

	"opentransit.org/internal/appconf"
	"opentransit.org/internal/transit"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config       Config
	Logger       *slog.Logger
	Repositories transit.Repositories
	Schema       *graphql.Schema
}

// Config holds all the configuration settings for our Application. It is read
// from command-line flags when the Application starts.
type Config struct {
	Port int
	Env  appconf.Environment
	// RateLimit is the number of requests per second allowed for one client.
	// Negative disables limiting.
	RateLimit      int
	LogDir         string
	MaxParallelism int
	MaxDepth       int

	// Exactly one catalog source is used: a SQLite file, optionally filled
	// and refreshed from a GTFS feed, or a YAML fixture served from memory.
	DBPath        string
	GTFSSource    string
	GTFSFeedID    string
	GTFSRefresh   bool
	FixturePath   string
	VerboseImport bool
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Port:           4000,
		Env:            appconf.Development,
		RateLimit:      100,
		LogDir:         "logs",
		MaxParallelism: 10,
		MaxDepth:       10,
		DBPath:         "opentransit.db",
	}
}

// UsesFixture reports whether the catalog is served from a YAML fixture.
func (c Config) UsesFixture() bool {
	return c.FixturePath != ""
}

// Validate rejects flag combinations that cannot be served.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.UsesFixture() && c.GTFSSource != "" {
		return errors.New("--fixture and --gtfs are mutually exclusive")
	}
	if !c.UsesFixture() && c.DBPath == "" {
		return errors.New("either --db or --fixture is required")
	}
	if c.GTFSRefresh && c.GTFSSource == "" {
		return errors.New("--gtfs-refresh requires --gtfs")
	}
	if c.MaxParallelism < 0 || c.MaxDepth < 0 {
		return errors.New("--max-parallelism and --max-depth must not be negative")
	}
	return nil
}
