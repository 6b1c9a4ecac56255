// Package tags builds the tag index of a site from document front matter.
package tags

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
)

// DefaultYear sorts entries without a year after every dated one.
const DefaultYear = 5000

// Source is a document to read tags from.
type Source struct {
	RelPath string
	Content []byte
}

// Entry is a document listed under a tag.
type Entry struct {
	Path  string         `json:"path"`
	Title string         `json:"title,omitempty"`
	Year  int            `json:"year"`
	Tags  []string       `json:"tags"`
	Meta  map[string]any `json:"-"`
}

// Group is one tag and the documents carrying it.
type Group struct {
	Tag     string  `json:"tag"`
	Slug    string  `json:"slug"`
	Entries []Entry `json:"entries"`
}

// ReadMeta returns the front matter of content. Documents with missing or
// malformed front matter yield nil.
func ReadMeta(content []byte) map[string]any {
	var meta map[string]any
	if _, err := frontmatter.Parse(bytes.NewReader(content), &meta); err != nil {
		return nil
	}
	return meta
}

// Build groups documents by tag. Within a group, entries are ordered by
// year and then by the order of docs; groups are ordered by tag, ignoring
// case.
func Build(docs []Source) []Group {
	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		meta := ReadMeta(d.Content)
		tags := metaTags(meta)
		if len(tags) == 0 {
			continue
		}
		entries = append(entries, Entry{
			Path:  d.RelPath,
			Title: metaString(meta, "title"),
			Year:  metaYear(meta),
			Tags:  tags,
			Meta:  meta,
		})
	}
	slices.SortStableFunc(entries, func(a, b Entry) int { return a.Year - b.Year })

	var groups []Group
	pos := make(map[string]int)
	for _, e := range entries {
		for _, tag := range e.Tags {
			i, ok := pos[tag]
			if !ok {
				i = len(groups)
				pos[tag] = i
				groups = append(groups, Group{Tag: tag, Slug: slug.Make(tag)})
			}
			groups[i].Entries = append(groups[i].Entries, e)
		}
	}

	fold := cases.Fold()
	slices.SortStableFunc(groups, func(a, b Group) int {
		return strings.Compare(fold.String(a.Tag), fold.String(b.Tag))
	})
	return groups
}

func metaTags(meta map[string]any) []string {
	var out []string
	switch v := meta["tags"].(type) {
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func metaString(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func metaYear(meta map[string]any) int {
	switch v := meta["year"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return DefaultYear
}
