package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/docexport/internal/api/v1"
	"github.com/gosuda/docexport/internal/api/ws"
)

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterExportRoutes(api, deps.Exporter)
	v1.RegisterFeatureRoutes(api, deps.Counter)
}

func registerAuditRoutes(api huma.API, deps Deps) {
	v1.RegisterInvocationRoutes(api, deps.Invocations)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/features/{feature}", hub.ServeFeature)
}
