package restapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"opentransit.org/internal/appconf"
	"opentransit.org/internal/graph"
	"opentransit.org/internal/webui"
)

// Routes builds the handler for the whole server. Requests pass security
// headers, the rate limit, request logging and compression before the router;
// every request carries the application's repositories in its context. The
// catalog debug page is only mounted in development.
func (api *RestAPI) Routes() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodPost, "/graphql", api.graphqlHandler)
	router.HandlerFunc(http.MethodGet, "/graphql", api.graphqlHandler)
	router.HandlerFunc(http.MethodPost, "/", api.graphqlHandler)
	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	router.HandlerFunc(http.MethodGet, "/schema.graphql", api.schemaHandler)
	if api.Config.Env == appconf.Development {
		webui.New().SetRoutes(router)
	}

	router.NotFound = http.HandlerFunc(api.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(api.methodNotAllowedResponse)
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		api.serverErrorResponse(w, r, fmt.Errorf("panic: %v", v))
	}

	logger := api.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = router
	handler = graph.Middleware(graph.StaticProvider(api.Repositories))(handler)
	handler = CompressionMiddleware(handler)
	handler = NewRequestLoggingMiddleware(logger)(handler)
	handler = api.rateLimiter.Handler(handler)
	handler = securityHeaders(handler)
	return handler
}
