package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zettelmark/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note key from the URL (everything after the route prefix).
// Supports encoded slashes from OpenAPI clients (e.g. zettel%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /notes.
//
//	@Summary		List notes with optional pagination and filtering
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			sort	query		string	false	"Sort field"	Enums(id, title, last_update)
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	tag := q.Get("tag")
	sort := q.Get("sort")

	items, total, err := h.svc.ListNotes(r.Context(), limit, offset, tag, sort)
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /notes/*.
//
//	@Summary		Get a single note by id or relative path
//	@Tags			notes
//	@Produce		json
//	@Param			key	path		string	true	"Note id or path"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{key} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	key := notePath(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id or path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), key)
	if err != nil {
		writeError(w, "get note", err, slog.String("key", key))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Backlinks handles GET /backlinks/*.
//
//	@Summary		Get the pages linking to a note
//	@Tags			notes
//	@Produce		json
//	@Param			key	path		string	true	"Note id or path"
//	@Success		200	{object}	BacklinksResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{key} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	key := notePath(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id or path is required"))
		return
	}
	bl, err := h.svc.Backlinks(r.Context(), key)
	if err != nil {
		writeError(w, "backlinks", err, slog.String("key", key))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: bl})
}

// BacklinkKeys handles GET /backlinks.
//
//	@Summary		Get the backlink map of the last build
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	BacklinkKeysResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) BacklinkKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.BacklinkKeys(r.Context())
	if err != nil {
		writeError(w, "backlink keys", err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinkKeysResponse{Keys: keys})
}

// Search handles GET /search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Graph handles GET /graph.
//
//	@Summary		Get the link graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, links, err := h.svc.Graph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: links})
}

// Tags handles GET /tags.
//
//	@Summary		Get the tag index
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, "tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: groups})
}

// Invalid handles GET /invalid.
//
//	@Summary		List documents the last build could not parse
//	@Tags			builds
//	@Produce		json
//	@Success		200	{object}	InvalidResponse
//	@Security		BearerAuth
//	@Router			/invalid [get]
func (h *Handler) Invalid(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Invalid(r.Context())
	if err != nil {
		writeError(w, "invalid documents", err)
		return
	}
	writeJSON(w, http.StatusOK, InvalidResponse{Documents: docs})
}

// LastBuild handles GET /builds/last.
//
//	@Summary		Get the most recent build
//	@Tags			builds
//	@Produce		json
//	@Success		200	{object}	BuildRow
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/builds/last [get]
func (h *Handler) LastBuild(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.LastBuild(r.Context())
	if err != nil {
		writeError(w, "last build", err)
		return
	}
	if b == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no build yet"))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Rebuild handles POST /rebuild.
//
//	@Summary		Rebuild the site and refresh the index
//	@Tags			builds
//	@Produce		json
//	@Success		200	{object}	BuildSummary
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rebuild [post]
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Rebuild(r.Context())
	if err != nil {
		writeError(w, "rebuild", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
