// Package notestore holds the notes of one build pass and the backlink map
// derived from them.
package notestore

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/starford/zettelmark/internal/models"
)

// LinkExt is the extension every backlink key ends with.
const LinkExt = ".md"

// Store is an id-ordered collection of notes with a path index.
//
// Update replaces everything at once; readers never observe a half-built
// index. Notes handed out by the store are shared, so callers must not
// modify them except through ApplyBacklinks.
type Store struct {
	mu     sync.RWMutex
	notes  []*models.Note
	byPath map[string]*models.Note
	byID   map[string]*models.Note
}

// New returns a store holding notes.
func New(notes ...*models.Note) *Store {
	s := &Store{}
	s.Update(notes)
	return s
}

// Update replaces the contents of the store. Notes are sorted by id and,
// for repeated ids, only the first one after sorting is kept.
func (s *Store) Update(notes []*models.Note) {
	sorted := make([]*models.Note, 0, len(notes))
	for _, n := range notes {
		if n != nil {
			sorted = append(sorted, n)
		}
	}
	slices.SortStableFunc(sorted, func(a, b *models.Note) int {
		return models.CompareIDs(a.ID, b.ID)
	})

	kept := sorted[:0]
	byID := make(map[string]*models.Note, len(sorted))
	byPath := make(map[string]*models.Note, len(sorted))
	for _, n := range sorted {
		if _, dup := byID[n.ID]; dup {
			continue
		}
		byID[n.ID] = n
		byPath[n.Path] = n
		kept = append(kept, n)
	}

	s.mu.Lock()
	s.notes = kept
	s.byID = byID
	s.byPath = byPath
	s.mu.Unlock()
}

// Notes returns a fresh copy of the notes in id order.
func (s *Store) Notes() []*models.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// ByPath looks a note up by its exact absolute path.
func (s *Store) ByPath(path string) (*models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byPath[path]
	return n, ok
}

// ByID looks a note up by id.
func (s *Store) ByID(id string) (*models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	return n, ok
}

// ByPartialPath returns the first note, in id order, whose path contains
// fragment once a trailing ".md" is removed from it.
//
// This is a plain substring match, not a path segment match: "note" also
// matches "/docs/notebook/x.md" if that note sorts first. Callers get the
// first hit in store order.
func (s *Store) ByPartialPath(fragment string) (*models.Note, bool) {
	fragment = filepath.ToSlash(strings.TrimSuffix(fragment, LinkExt))

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notes {
		if strings.Contains(filepath.ToSlash(n.Path), fragment) {
			return n, true
		}
	}
	return nil, false
}
