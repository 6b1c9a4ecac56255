package notestore

import (
	"strings"

	"github.com/starford/zettelmark/internal/models"
)

// BacklinkMap maps a normalized link string to the notes containing it.
// Keys are the literal link text, so "a" and "./a" pointing at the same
// note are two separate entries. Keys keep the order they were first seen.
type BacklinkMap struct {
	keys    []string
	sources map[string][]*models.Note
}

// NormalizeLink appends LinkExt unless link already ends with it.
func NormalizeLink(link string) string {
	if strings.HasSuffix(link, LinkExt) {
		return link
	}
	return link + LinkExt
}

// NormalizeLinks normalizes every link, dropping repeats.
func NormalizeLinks(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		l = NormalizeLink(l)
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Resolve builds the backlink map of s. Links that match no note are left
// out.
func Resolve(s *Store) *BacklinkMap {
	m := &BacklinkMap{sources: make(map[string][]*models.Note)}
	for _, n := range s.Notes() {
		for _, link := range NormalizeLinks(n.Links) {
			if _, ok := s.ByPartialPath(link); !ok {
				continue
			}
			if _, ok := m.sources[link]; !ok {
				m.keys = append(m.keys, link)
			}
			m.sources[link] = append(m.sources[link], n)
		}
	}
	return m
}

// Links returns the map keys in discovery order.
func (m *BacklinkMap) Links() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Sources returns the notes that contain link.
func (m *BacklinkMap) Sources(link string) []*models.Note {
	src := m.sources[link]
	out := make([]*models.Note, len(src))
	copy(out, src)
	return out
}

// Len returns the number of keys.
func (m *BacklinkMap) Len() int { return len(m.keys) }

// ApplyBacklinks records the rendered page of source on every note source
// links to: for each map entry listing source, the key is resolved again
// and {url, title} is appended to the target's backlinks. It returns the
// number of backlinks added.
//
// The whole map is scanned for each call. Calls must not run concurrently
// with each other or with readers of the affected notes.
func ApplyBacklinks(s *Store, m *BacklinkMap, source *models.Note, url, title string) int {
	if source == nil {
		return 0
	}
	added := 0
	for _, link := range m.keys {
		for _, src := range m.sources[link] {
			if !src.Equal(source) {
				continue
			}
			target, ok := s.ByPartialPath(link)
			if !ok {
				continue
			}
			target.Backlinks = append(target.Backlinks, models.Backlink{URL: url, Title: title})
			added++
		}
	}
	return added
}
