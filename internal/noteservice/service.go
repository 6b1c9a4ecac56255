package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/starford/zettelmark/internal/apperr"
	"github.com/starford/zettelmark/internal/checksum"
	"github.com/starford/zettelmark/internal/index"
	"github.com/starford/zettelmark/internal/models"
	"github.com/starford/zettelmark/internal/site"
	"github.com/starford/zettelmark/internal/sse"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	ID         string            `json:"id"`
	Path       string            `json:"path"`
	Title      string            `json:"title"`
	URL        string            `json:"url"`
	LastUpdate string            `json:"last_update_date"`
	Checksum   string            `json:"checksum"`
	Tags       []string          `json:"tags"`
	Meta       map[string]any    `json:"meta,omitempty"`
	Body       string            `json:"body"`
	RefHTML    string            `json:"ref_html,omitempty"`
	Links      []string          `json:"links"`
	Backlinks  []models.Backlink `json:"backlinks"`
	PrevURL    string            `json:"prev_url,omitempty"`
	NextURL    string            `json:"next_url,omitempty"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID         string   `json:"id"`
	Path       string   `json:"path"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	LastUpdate string   `json:"last_update_date"`
	Checksum   string   `json:"checksum"`
	Tags       []string `json:"tags"`
}

// BuildSummary reports the outcome of a rebuild.
type BuildSummary struct {
	Documents int           `json:"documents"`
	Notes     int           `json:"notes"`
	Invalid   int           `json:"invalid"`
	Written   int           `json:"written"`
	Pruned    int           `json:"pruned"`
	Duration  time.Duration `json:"duration"`
	Updated   []string      `json:"updated"`
	Removed   []string      `json:"removed"`
}

// Builder runs one build pass.
type Builder interface {
	Build(ctx context.Context) (*site.Result, error)
}

// Publisher receives rebuild notifications.
type Publisher interface {
	PublishBuild(ev sse.BuildEvent)
}

// Service coordinates builds and index queries.
type Service struct {
	builder Builder
	db      index.NoteIndex
	events  Publisher
	logger  *slog.Logger

	mu     sync.Mutex
	prints map[string]string
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher announces every rebuild to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new note service.
func NewService(b Builder, db index.NoteIndex, opts ...Option) *Service {
	s := &Service{builder: b, db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rebuild runs a full build, stores its snapshot, and announces the notes
// whose stored state changed since the previous rebuild of this service.
// It fails with apperr.ErrConflict while another rebuild is running.
func (s *Service) Rebuild(ctx context.Context) (*BuildSummary, error) {
	if !s.mu.TryLock() {
		return nil, fmt.Errorf("noteservice: rebuild running: %w", apperr.ErrConflict)
	}
	defer s.mu.Unlock()

	res, err := s.builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("noteservice: build: %w", err)
	}
	snap := index.FromBuild(res)
	if err := s.db.Replace(snap); err != nil {
		return nil, fmt.Errorf("noteservice: store snapshot: %w", err)
	}

	prints := make(map[string]string, len(snap.Notes))
	sum := &BuildSummary{
		Documents: snap.Build.Documents,
		Notes:     snap.Build.Notes,
		Invalid:   snap.Build.Invalid,
		Written:   res.Written,
		Pruned:    res.Pruned,
		Duration:  res.Duration,
		Updated:   []string{},
		Removed:   []string{},
	}
	for _, n := range snap.Notes {
		fp := fingerprint(n)
		prints[n.ID] = fp
		if prev, ok := s.prints[n.ID]; !ok || prev != fp {
			sum.Updated = append(sum.Updated, n.ID)
		}
	}
	for id := range s.prints {
		if _, ok := prints[id]; !ok {
			sum.Removed = append(sum.Removed, id)
		}
	}
	slices.SortFunc(sum.Removed, models.CompareIDs)
	s.prints = prints

	s.logger.Info("noteservice: rebuilt",
		slog.Int("notes", sum.Notes),
		slog.Int("updated", len(sum.Updated)),
		slog.Int("removed", len(sum.Removed)))

	if s.events != nil {
		s.events.PublishBuild(sse.BuildEvent{Summary: sum, Updated: sum.Updated, Removed: sum.Removed})
	}
	return sum, nil
}

// GetNote returns the note whose id or relative path is key.
func (s *Service) GetNote(_ context.Context, key string) (*NoteDetail, error) {
	r, err := s.db.GetNote(key)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		ID:         r.ID,
		Path:       r.Path,
		Title:      r.Title,
		URL:        r.URL,
		LastUpdate: r.LastUpdate,
		Checksum:   r.Checksum,
		Tags:       nonNilSlice(r.Tags),
		Meta:       r.Meta,
		Body:       r.Body,
		RefHTML:    r.RefHTML,
		Links:      nonNilSlice(r.Links),
		Backlinks:  nonNilSlice(r.Backlinks),
		PrevURL:    r.PrevURL,
		NextURL:    r.NextURL,
	}, nil
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			ID:         r.ID,
			Path:       r.Path,
			Title:      r.Title,
			URL:        r.URL,
			LastUpdate: r.LastUpdate,
			Checksum:   r.Checksum,
			Tags:       nonNilSlice(r.Tags),
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", apperr.ErrValidation)
	}
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Graph returns all nodes and links for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Backlinks returns the pages linking to the note whose id or relative
// path is key.
func (s *Service) Backlinks(_ context.Context, key string) ([]models.Backlink, error) {
	r, err := s.db.GetNote(key)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(r.Backlinks), nil
}

// BacklinkKeys returns the backlink map of the last build.
func (s *Service) BacklinkKeys(_ context.Context) ([]index.BacklinkKeyRow, error) {
	rows, err := s.db.BacklinkKeys()
	return nonNilSlice(rows), err
}

// Tags returns the tag index of the last build.
func (s *Service) Tags(_ context.Context) ([]index.TagGroup, error) {
	groups, err := s.db.Tags()
	return nonNilSlice(groups), err
}

// Invalid returns the documents the last build could not parse.
func (s *Service) Invalid(_ context.Context) ([]index.InvalidRow, error) {
	rows, err := s.db.Invalid()
	return nonNilSlice(rows), err
}

// LastBuild returns the summary of the most recent stored build, or nil
// when nothing was built yet.
func (s *Service) LastBuild(_ context.Context) (*index.BuildRow, error) {
	b, err := s.db.LastBuild()
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

func fingerprint(n index.NoteRow) string {
	parts := []string{n.Checksum, n.Title, n.URL, n.LastUpdate, n.Body, n.RefHTML, n.PrevURL, n.NextURL}
	for _, bl := range n.Backlinks {
		parts = append(parts, bl.URL, bl.Title)
	}
	return checksum.Fields(parts...)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
