// Package site runs the build pipeline over a docs directory: scan the
// documents into notes, derive backlinks, then transform every page.
package site

import (
	"context"
	"fmt"

	"github.com/starford/zettelmark/internal/models"
	"github.com/starford/zettelmark/internal/storage"
)

// Document is a markdown file handed to the pipeline.
type Document struct {
	RelPath  string
	AbsPath  string
	Checksum string
	// Content is read from AbsPath when nil.
	Content []byte
}

// Classified is a scanned document: Note is set for notes, Err explains
// why any other document is not one.
type Classified struct {
	Document
	Note *models.Note
	Err  error
}

// IsNote reports whether the document parsed into a note.
func (c *Classified) IsNote() bool { return c.Note != nil }

// Discover lists the markdown documents of docs in path order.
func Discover(ctx context.Context, docs storage.Provider) ([]Document, error) {
	files, err := docs.List("")
	if err != nil {
		return nil, fmt.Errorf("site: discover: %w", err)
	}
	out := make([]Document, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs, err := docs.Abs(f.Path)
		if err != nil {
			return nil, fmt.Errorf("site: discover: %w", err)
		}
		content, err := docs.Read(f.Path)
		if err != nil {
			return nil, fmt.Errorf("site: discover: %w", err)
		}
		out = append(out, Document{
			RelPath:  f.Path,
			AbsPath:  abs,
			Checksum: f.Checksum,
			Content:  content,
		})
	}
	return out, nil
}
