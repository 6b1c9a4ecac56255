// Package revision answers "when was this document last changed", either from
// version-control history or from the file system.
package revision

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultHostMarkers select the version-control source for a path.
var DefaultHostMarkers = []string{"//github.com", "//gitlab.com"}

// Source returns the last modification time of the document at path.
type Source interface {
	RevisionDate(ctx context.Context, path string) (time.Time, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, path string) (time.Time, error)

// RevisionDate implements Source.
func (f SourceFunc) RevisionDate(ctx context.Context, path string) (time.Time, error) {
	return f(ctx, path)
}

// ModTime reads the file-system modification timestamp.
type ModTime struct {
	Location *time.Location
}

// RevisionDate implements Source.
func (m ModTime) RevisionDate(_ context.Context, path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("revision: stat %s: %w", path, err)
	}
	loc := m.Location
	if loc == nil {
		loc = time.Local
	}
	return info.ModTime().In(loc), nil
}

// Fixed always answers with the same time. Useful for tests and dry runs.
type Fixed time.Time

// RevisionDate implements Source.
func (f Fixed) RevisionDate(context.Context, string) (time.Time, error) {
	return time.Time(f), nil
}

// Selector routes paths that look like hosted repository checkouts to VCS
// and everything else to FS.
type Selector struct {
	VCS     Source
	FS      Source
	Markers []string
}

// NewSelector builds a Selector using DefaultHostMarkers when markers is empty.
func NewSelector(vcs, fs Source, markers ...string) *Selector {
	if len(markers) == 0 {
		markers = DefaultHostMarkers
	}
	return &Selector{VCS: vcs, FS: fs, Markers: markers}
}

// VersionControlled reports whether path contains one of the host markers.
func (s *Selector) VersionControlled(path string) bool {
	for _, m := range s.Markers {
		if m != "" && strings.Contains(path, m) {
			return true
		}
	}
	return false
}

// RevisionDate implements Source.
func (s *Selector) RevisionDate(ctx context.Context, path string) (time.Time, error) {
	if s.VCS != nil && s.VersionControlled(path) {
		return s.VCS.RevisionDate(ctx, path)
	}
	if s.FS == nil {
		return ModTime{}.RevisionDate(ctx, path)
	}
	return s.FS.RevisionDate(ctx, path)
}
