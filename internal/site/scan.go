package site

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/zettelmark/internal/apperr"
	"github.com/starford/zettelmark/internal/models"
	"github.com/starford/zettelmark/internal/notestore"
	"github.com/starford/zettelmark/internal/parser"
	"github.com/starford/zettelmark/internal/tags"
	"github.com/starford/zettelmark/internal/transform"
)

// DefaultWorkers is the parse parallelism used when Config.Workers is unset.
const DefaultWorkers = 4

// Config controls how pages are addressed and scanned.
type Config struct {
	SiteURL          string
	UseDirectoryURLs bool
	Workers          int
}

// Index is the result of scanning a document set.
type Index struct {
	// Documents are kept in discovery order.
	Documents []*Classified
	Store     *notestore.Store
	Backlinks *notestore.BacklinkMap
	Tags      []tags.Group

	pages []transform.Page
	cfg   Config
}

// Scan parses docs into notes, indexes them and resolves backlinks.
//
// Documents are parsed concurrently; a document that fails to parse is
// recorded on its Classified entry and never stops the scan. Only context
// cancellation is returned as an error.
func Scan(ctx context.Context, docs []Document, p *parser.Parser, cfg Config, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	classified := make([]*Classified, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := &Classified{Document: doc}
			if doc.Content == nil {
				c.Note, c.Err = p.ParseFile(gctx, doc.AbsPath, doc.RelPath)
			} else {
				c.Note, c.Err = p.Parse(gctx, doc.AbsPath, doc.RelPath, doc.Content)
			}
			classified[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := &Index{Documents: classified, Store: notestore.New(), cfg: cfg}
	notes := make([]*models.Note, 0, len(classified))
	for _, c := range classified {
		if c.IsNote() {
			notes = append(notes, c.Note)
		}
	}
	ix.Store.Update(notes)

	sources := make([]tags.Source, 0, len(classified))
	for _, c := range classified {
		if c.IsNote() {
			if kept, ok := ix.Store.ByPath(c.AbsPath); !ok || kept != c.Note {
				c.Err = fmt.Errorf("site: duplicate id %q: %w", c.Note.ID, apperr.ErrAlreadyExists)
				c.Note = nil
			}
		}
		if !c.IsNote() {
			logger.Warn("scan: ignoring invalid note",
				slog.String("path", c.RelPath),
				slog.String("error", c.Err.Error()))
		}
		ix.pages = append(ix.pages, transform.Page{
			RelPath: c.RelPath,
			AbsPath: c.AbsPath,
			URL:     transform.PageURL(c.RelPath, cfg.UseDirectoryURLs),
			Note:    c.Note,
		})
		if c.Content != nil {
			sources = append(sources, tags.Source{RelPath: c.RelPath, Content: c.Content})
		}
	}
	ix.Backlinks = notestore.Resolve(ix.Store)
	ix.Tags = tags.Build(sources)

	logger.Info("scan: completed",
		slog.Int("documents", len(classified)),
		slog.Int("notes", ix.Store.Len()),
		slog.Int("backlink_targets", ix.Backlinks.Len()),
		slog.Int("tags", len(ix.Tags)))
	return ix, nil
}

// Pages returns every scanned document as a page, in discovery order.
func (ix *Index) Pages() []transform.Page {
	out := make([]transform.Page, len(ix.pages))
	copy(out, ix.pages)
	return out
}

// Notes returns the indexed notes in id order.
func (ix *Index) Notes() []*models.Note { return ix.Store.Notes() }

// Invalid returns the documents that did not parse into notes.
func (ix *Index) Invalid() []*Classified {
	var out []*Classified
	for _, c := range ix.Documents {
		if !c.IsNote() {
			out = append(out, c)
		}
	}
	return out
}

// URL returns the absolute URL of the page at relPath.
func (ix *Index) URL(relPath string) string {
	return ix.cfg.SiteURL + transform.PageURL(relPath, ix.cfg.UseDirectoryURLs)
}
