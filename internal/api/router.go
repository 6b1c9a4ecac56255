package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/zettelmark/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// outputRoot, if non-empty, is served read-only under GET /pages/*.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, outputRoot string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes, addressed by id or relative path.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Get("/backlinks", h.BacklinkKeys)
	r.Get("/backlinks/*", h.Backlinks)

	// Search.
	r.Get("/search", h.Search)

	// Graph.
	r.Get("/graph", h.Graph)

	// Tags and build state.
	r.Get("/tags", h.Tags)
	r.Get("/invalid", h.Invalid)
	r.Get("/builds/last", h.LastBuild)
	r.Post("/rebuild", h.Rebuild)

	// Rendered output.
	if outputRoot != "" {
		oh := NewOutputHandler(outputRoot)
		r.Get("/pages/*", oh.ServeFile)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
