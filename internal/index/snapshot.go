package index

import (
	"errors"

	"github.com/starford/zettelmark/internal/notestore"
	"github.com/starford/zettelmark/internal/parser"
	"github.com/starford/zettelmark/internal/site"
)

// FromBuild converts a build result into the snapshot persisted by Replace.
func FromBuild(res *site.Result) *Snapshot {
	ix := res.Index
	rendered := make(map[string]*site.Rendered, len(res.Rendered))
	for _, r := range res.Rendered {
		rendered[r.Page.AbsPath] = r
	}
	checksums := make(map[string]string, len(ix.Documents))
	for _, c := range ix.Documents {
		checksums[c.AbsPath] = c.Checksum
	}

	s := &Snapshot{}
	for _, n := range ix.Notes() {
		row := NoteRow{
			ID:         n.ID,
			Path:       n.RelPath,
			Title:      n.Title,
			URL:        ix.URL(n.RelPath),
			LastUpdate: n.LastUpdateDate,
			Checksum:   checksums[n.Path],
			Tags:       n.Tags,
			Meta:       n.Meta,
			Links:      n.Links,
			Backlinks:  n.Backlinks,
		}
		if r, ok := rendered[n.Path]; ok {
			row.Body = r.Markdown
			row.RefHTML = r.RefHTML
			if r.Prev != nil {
				row.PrevURL = ix.URL(r.Prev.RelPath)
			}
			if r.Next != nil {
				row.NextURL = ix.URL(r.Next.RelPath)
			}
		}
		s.Notes = append(s.Notes, row)

		for _, l := range n.Links {
			link := LinkRow{Source: n.ID, Target: l}
			if target, ok := ix.Store.ByPartialPath(notestore.NormalizeLink(l)); ok {
				link.TargetID = target.ID
			}
			s.Links = append(s.Links, link)
		}
	}

	for _, link := range ix.Backlinks.Links() {
		for _, src := range ix.Backlinks.Sources(link) {
			s.BacklinkKeys = append(s.BacklinkKeys, BacklinkKeyRow{Link: link, Source: src.ID})
		}
	}

	for _, g := range ix.Tags {
		for _, e := range g.Entries {
			s.Tags = append(s.Tags, TagRow{Tag: g.Tag, Slug: g.Slug, Path: e.Path, Title: e.Title, Year: e.Year})
		}
	}

	invalid := ix.Invalid()
	for _, c := range invalid {
		s.Invalid = append(s.Invalid, InvalidRow{Path: c.RelPath, Reason: reason(c.Err)})
	}

	s.Build = BuildRow{
		StartedAt: res.Started,
		Duration:  res.Duration,
		Documents: len(ix.Documents),
		Notes:     ix.Store.Len(),
		Invalid:   len(invalid),
	}
	return s
}

func reason(err error) string {
	var fe *parser.FormatError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
