package graph

import (
	"context"
	"errors"
	"net/http"

	"opentransit.org/internal/transit"
)

// ErrNoRepositories is returned by resolvers invoked without request-scoped
// repositories.
var ErrNoRepositories = errors.New("no repositories in request context")

type repositoriesKey struct{}

// WithRepositories attaches the repositories every resolver of one request uses.
func WithRepositories(ctx context.Context, repos transit.Repositories) context.Context {
	return context.WithValue(ctx, repositoriesKey{}, repos)
}

// RepositoriesFrom returns the repositories attached by WithRepositories.
func RepositoriesFrom(ctx context.Context) (transit.Repositories, error) {
	repos, ok := ctx.Value(repositoriesKey{}).(transit.Repositories)
	if !ok || repos.Networks == nil || repos.Routes == nil || repos.Stops == nil {
		return transit.Repositories{}, ErrNoRepositories
	}
	return repos, nil
}

// RepositoriesProvider builds the repositories for one request.
type RepositoriesProvider func(r *http.Request) transit.Repositories

// StaticProvider serves the same process-wide repositories to every request.
func StaticProvider(repos transit.Repositories) RepositoriesProvider {
	return func(*http.Request) transit.Repositories {
		return repos
	}
}

// Middleware attaches repositories from provider to each request context.
func Middleware(provider RepositoriesProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRepositories(r.Context(), provider(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
