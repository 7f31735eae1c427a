package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"opentransit.org/catalogdb"
	"opentransit.org/internal/gtfs"
	"opentransit.org/internal/logging"
)

type importOptions struct {
	dbPath  string
	source  string
	feedID  string
	replace bool
}

func newImportCmd(root *rootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a static GTFS feed into the catalog database",
		Example: `  opentransit import --db opentransit.db --gtfs https://example.com/gtfs.zip
  opentransit import --db opentransit.db --gtfs feed.zip --replace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dbPath == "" || opts.source == "" {
				return errors.New("--db and --gtfs are required")
			}
			env, err := root.environment()
			if err != nil {
				return err
			}

			logger, closeLog, err := setupLogging(root, cmd.ErrOrStderr(), time.Now())
			if err != nil {
				return err
			}
			defer closeLog()

			client, err := catalogdb.NewClient(catalogdb.NewConfig(opts.dbPath, env, root.verbose), logger)
			if err != nil {
				return logging.WrapError(logger, "error opening catalog database", err)
			}
			defer logging.SafeCloseWithLogging(client, logger, "catalog_database_close")

			summary, err := runImport(cmd.Context(), gtfs.NewImporter(client, logger), gtfs.Config{
				Source:  opts.source,
				FeedID:  opts.feedID,
				Verbose: root.verbose,
			}, opts.replace)
			if err != nil {
				return logging.WrapError(logger, "error importing GTFS feed", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d networks, %d routes, %d stops (%d skipped) in %s\n",
				summary.Networks, summary.Routes, summary.Stops, summary.Skipped, summary.Duration.Round(time.Millisecond))
			return err
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "opentransit.db", "Path to the SQLite catalog database")
	cmd.Flags().StringVar(&opts.source, "gtfs", "", "Path or URL of a static GTFS zip file")
	cmd.Flags().StringVar(&opts.feedID, "feed-id", "", "Namespace for generated ids, keeps feeds with overlapping GTFS ids apart")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Replace the stored catalog instead of adding to it")
	return cmd
}

func runImport(ctx context.Context, importer *gtfs.Importer, config gtfs.Config, replace bool) (gtfs.Summary, error) {
	if replace {
		return importer.Reimport(ctx, config)
	}
	return importer.Import(ctx, config)
}
