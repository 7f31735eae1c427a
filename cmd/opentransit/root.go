package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"opentransit.org/internal/appconf"
	"opentransit.org/internal/logging"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	env     string
	logDir  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "opentransit",
		Short: "A read-only GraphQL API over a public transit catalog",
		Long: `Open Transit serves transit networks, their routes and stops over GraphQL.
The catalog lives in a SQLite database filled from GTFS feeds, or in a YAML
fixture for development.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.env, "env", "development", "Environment (development|test|production)")
	cmd.PersistentFlags().StringVar(&opts.logDir, "log-dir", "logs", "Directory for log files, empty to log to the console only")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newImportCmd(opts),
		newSchemaCmd(),
	)
	return cmd
}

func (o *rootOptions) environment() (appconf.Environment, error) {
	return appconf.ParseEnvironment(o.env)
}

// setupLogging logs to console at INFO (DEBUG when verbose) and, when a log
// directory is set, to a fresh timestamped file at DEBUG. Older files beyond
// logging.DefaultKeepLogFiles are removed. The returned func closes the file.
func setupLogging(opts *rootOptions, console io.Writer, startedAt time.Time) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
	}

	if opts.logDir == "" {
		return slog.New(handlers[0]), func() {}, nil
	}

	file, err := logging.OpenLogFile(opts.logDir, startedAt)
	if err != nil {
		return nil, nil, err
	}
	handlers = append(handlers, logging.NewJSONHandler(file, slog.LevelDebug))
	logger := slog.New(logging.NewFanoutHandler(handlers...))

	removed, err := logging.PruneLogFiles(opts.logDir, logging.DefaultKeepLogFiles)
	if err != nil {
		logging.LogError(logger, "failed to prune log files", err, slog.String("dir", opts.logDir))
	}
	for _, path := range removed {
		logger.Debug("removed old log file", slog.String("path", path))
	}

	logger.Info("logging to file", slog.String("path", file.Name()))
	return logger, func() {
		logging.SafeCloseWithLogging(file, slog.New(handlers[0]), "log_file_close")
	}, nil
}
