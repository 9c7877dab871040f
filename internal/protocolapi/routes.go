// Package protocolapi is the engine's debug HTTP/WS surface: open a script
// as a session, edit it, ask where the cursor lands, and ask for
// completions, either one request at a time over REST or streamed over a
// websocket that also pushes diagnostics to every subscriber whenever any
// of them edits the shared session. It exists for driving the engine from
// an editor integration or from manual testing, not as a production
// multi-tenant API.
package protocolapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sqlweave/engine/internal/catalog"
)

// SetupRoutes wires the REST and websocket surface against one shared
// SessionRegistry/Catalog pair, the same chi.Router shape as the teacher's
// api.SetupRoutes, with the websocket route mounted outside the logging
// middleware group for the same reason the teacher's does: an upgraded
// connection's ResponseWriter shouldn't be wrapped by anything downstream
// of the upgrade.
func SetupRoutes(cat *catalog.Catalog, log *zap.Logger) http.Handler {
	sessions := NewSessionRegistry(cat)
	h := &Handlers{Sessions: sessions, Catalog: cat}
	ws := &WSHandler{Sessions: sessions, Log: log}

	r := chi.NewRouter()

	r.Get("/api/ws", ws.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(LoggingMiddleware(log))

		r.Route("/api/scripts", func(r chi.Router) {
			r.Post("/", h.handleOpenScript)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", h.handleCloseScript)
				r.Post("/edit", h.handleEdit)
				r.Get("/cursor", h.handleCursor)
				r.Get("/complete", h.handleComplete)
				r.Get("/lineage", h.handleLineage)
				r.Get("/rowhandle", h.handleEncodeRowHandle)
			})
		})

		r.Post("/api/catalog/sync", h.handleCatalogSync)
		r.Post("/api/rowhandle/decode", h.handleDecodeRowHandle)
	})

	return r
}
