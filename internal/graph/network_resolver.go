package graph

import (
	"context"
	"log/slog"

	"opentransit.org/internal/logging"
)

// Routes resolves TransitNetwork.routes. It runs only when the query selects
// the field, once per network in the result; calls are not batched.
func (n *TransitNetwork) Routes(ctx context.Context) ([]*TransitRoute, error) {
	repos, err := RepositoriesFrom(ctx)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("resolving network routes",
		slog.String("network_id", n.model.ID.String()),
		slog.String("component", "graphql"))

	models, err := repos.Routes.ListForNetwork(ctx, n.model)
	if err != nil {
		return nil, err
	}
	return adaptAll(models, NewTransitRoute), nil
}
