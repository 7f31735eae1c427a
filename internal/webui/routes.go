package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type WebUI struct{}

func New() *WebUI {
	return &WebUI{}
}

func (webUI *WebUI) SetRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/debug/", webUI.debugIndexHandler)
}
