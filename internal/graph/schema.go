// Package graph resolves GraphQL queries over the transit catalog. Root fields
// call one repository operation each; nested relationships are resolved only
// when a query selects them.
package graph

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/graph-gophers/graphql-go"

	"opentransit.org/internal/logging"
)

//go:embed schema.graphql
var sdl string

// SDL returns the schema definition served by NewSchema.
func SDL() string {
	return sdl
}

// Options tunes query execution.
type Options struct {
	// MaxParallelism bounds concurrently running resolvers per request.
	MaxParallelism int
	// MaxDepth rejects deeper queries. Zero disables the check.
	MaxDepth int
	Logger   *slog.Logger
}

// NewSchema parses the schema and binds it to the resolvers.
func NewSchema(opts Options) (*graphql.Schema, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	schemaOpts := []graphql.SchemaOpt{
		graphql.UseFieldResolvers(),
		graphql.Logger(&panicLogger{logger: logger}),
	}
	if opts.MaxParallelism > 0 {
		schemaOpts = append(schemaOpts, graphql.MaxParallelism(opts.MaxParallelism))
	}
	if opts.MaxDepth > 0 {
		schemaOpts = append(schemaOpts, graphql.MaxDepth(opts.MaxDepth))
	}

	schema, err := graphql.ParseSchema(sdl, &QueryResolver{}, schemaOpts...)
	if err != nil {
		return nil, fmt.Errorf("error parsing schema: %w", err)
	}
	return schema, nil
}

// panicLogger reports resolver panics through slog.
type panicLogger struct {
	logger *slog.Logger
}

func (l *panicLogger) LogPanic(ctx context.Context, value interface{}) {
	logging.LogError(l.logger, "graphql resolver panic", fmt.Errorf("%v", value),
		slog.String("component", "graphql"))
}
