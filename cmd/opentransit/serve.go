package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"opentransit.org/catalogdb"
	"opentransit.org/internal/app"
	"opentransit.org/internal/graph"
	"opentransit.org/internal/gtfs"
	"opentransit.org/internal/logging"
	"opentransit.org/internal/memstore"
	"opentransit.org/internal/restapi"
	"opentransit.org/internal/transit"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	cfg := app.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL API",
		Example: `  opentransit serve --fixture testdata/catalog.yaml
  opentransit serve --db opentransit.db --gtfs https://example.com/gtfs.zip --gtfs-refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.environment()
			if err != nil {
				return err
			}
			cfg.Env = env
			cfg.LogDir = root.logDir
			cfg.VerboseImport = root.verbose
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := setupLogging(root, cmd.ErrOrStderr(), time.Now())
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := serve(ctx, cfg, logger); err != nil {
				return logging.WrapError(logger, "server stopped", err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Port, "port", cfg.Port, "API server port")
	flags.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Requests per second allowed for one client, negative to disable")
	flags.IntVar(&cfg.MaxParallelism, "max-parallelism", cfg.MaxParallelism, "Resolvers run concurrently per request")
	flags.IntVar(&cfg.MaxDepth, "max-depth", cfg.MaxDepth, "Deepest accepted query, 0 for no limit")
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite catalog database")
	flags.StringVar(&cfg.FixturePath, "fixture", "", "Serve a YAML catalog from memory instead of the database")
	flags.StringVar(&cfg.GTFSSource, "gtfs", "", "Path or URL of a static GTFS zip that replaces the stored catalog at startup")
	flags.StringVar(&cfg.GTFSFeedID, "feed-id", "", "Namespace for ids generated from the GTFS feed")
	flags.BoolVar(&cfg.GTFSRefresh, "gtfs-refresh", false, "Re-import a remote GTFS feed every 24 hours")
	return cmd
}

// catalogSource is the backend chosen by the serve flags.
type catalogSource struct {
	repos     transit.Repositories
	refresher *gtfs.Refresher
	close     func()
}

func openCatalog(ctx context.Context, cfg app.Config, logger *slog.Logger) (*catalogSource, error) {
	if cfg.UsesFixture() {
		store, err := memstore.LoadFile(cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("error loading fixture: %w", err)
		}
		logger.Info("serving catalog fixture", slog.String("path", cfg.FixturePath))
		return &catalogSource{repos: store.Repositories(), close: func() {}}, nil
	}

	client, err := catalogdb.NewClient(catalogdb.NewConfig(cfg.DBPath, cfg.Env, cfg.VerboseImport), logger)
	if err != nil {
		return nil, fmt.Errorf("error opening catalog database: %w", err)
	}
	source := &catalogSource{
		repos: client.Repositories(),
		close: func() { logging.SafeCloseWithLogging(client, logger, "catalog_database_close") },
	}

	if cfg.GTFSSource != "" {
		importer := gtfs.NewImporter(client, logger)
		gtfsConfig := gtfs.Config{Source: cfg.GTFSSource, FeedID: cfg.GTFSFeedID, Verbose: cfg.VerboseImport}
		if _, err := importer.Reimport(ctx, gtfsConfig); err != nil {
			source.close()
			return nil, err
		}
		if cfg.GTFSRefresh {
			source.refresher = gtfs.NewRefresher(importer, gtfsConfig, gtfs.DefaultRefreshInterval)
		}
	}

	if counts, err := client.TableCounts(ctx); err == nil {
		logger.Info("serving catalog database",
			slog.String("path", cfg.DBPath),
			slog.Int("networks", counts["networks"]),
			slog.Int("routes", counts["routes"]),
			slog.Int("stops", counts["stops"]))
	}
	return source, nil
}

// serve runs the HTTP server and the optional GTFS refresher until ctx is
// cancelled or one of them fails.
func serve(ctx context.Context, cfg app.Config, logger *slog.Logger) error {
	catalog, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer catalog.close()

	schema, err := graph.NewSchema(graph.Options{
		MaxParallelism: cfg.MaxParallelism,
		MaxDepth:       cfg.MaxDepth,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	api := restapi.NewRestAPI(&app.Application{
		Config:       cfg,
		Logger:       logger,
		Repositories: catalog.repos,
		Schema:       schema,
	})
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", srv.Addr), slog.String("env", cfg.Env.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if catalog.refresher != nil {
		g.Go(func() error {
			return catalog.refresher.Run(gctx)
		})
	}
	return g.Wait()
}
