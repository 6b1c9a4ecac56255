// Package models defines the domain types for zettelmark.
package models

import (
	"cmp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format of Note.LastUpdateDate.
const DateLayout = "2006-01-02"

// Note is a parsed zettel. Two notes are the same note iff their IDs match.
type Note struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Path           string         `json:"-"`
	RelPath        string         `json:"path"`
	Links          []string       `json:"links,omitempty"`
	Backlinks      []Backlink     `json:"backlinks"`
	LastUpdateDate string         `json:"last_update_date"`
	Tags           []string       `json:"tags,omitempty"`
	Meta           map[string]any `json:"meta,omitempty"`
}

// Backlink records a rendered page that links to a note.
type Backlink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Equal reports whether n and other share the same ID.
func (n *Note) Equal(other *Note) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.ID == other.ID
}

// LastUpdate returns LastUpdateDate as a time in loc.
func (n *Note) LastUpdate(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, n.LastUpdateDate, loc)
}

// CompareIDs orders note IDs. Integer IDs sort before all other IDs and
// compare numerically among themselves; the rest compare as plain strings.
func CompareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(ai, bi)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// FileInfo describes a file found by a storage listing.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
