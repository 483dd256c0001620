package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(deps Deps, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/ask", h.Ask)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.ListDocuments)
		r.Post("/", h.CreateDocument)
		r.Delete("/", h.ClearDocuments)
		r.Post("/upload", h.Upload)
		r.Get("/{id}", h.GetDocument)
		r.Delete("/{id}", h.DeleteDocument)
	})

	r.Get("/stats", h.Stats)
	r.Get("/search", h.Search)
	r.Post("/ingest/scan", h.Scan)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
