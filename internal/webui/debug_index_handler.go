// Package webui serves a development page that dumps the catalog behind the
// API.
package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"opentransit.org/internal/graph"
	"opentransit.org/internal/logging"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, r *http.Request, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to render debug page", err,
			slog.String("component", "webui"))
	}
}

// debugIndexHandler dumps one catalog collection, chosen by the dataType
// parameter, from the request's repositories.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	repos, err := graph.RepositoriesFrom(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	var (
		data  interface{}
		title string
	)

	switch r.URL.Query().Get("dataType") {
	case "networks":
		data, err = repos.Networks.List(ctx)
		title = "Catalog - Networks"
	case "routes":
		data, err = repos.Routes.List(ctx)
		title = "Catalog - Routes"
	case "stops":
		data, err = repos.Stops.List(ctx)
		title = "Catalog - Stops"
	default:
		data = map[string]string{
			"error": "Please use one of the following: networks, routes, stops.",
		}
		title = "Choose a data type"
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeDebugData(w, r, title, data)
}
