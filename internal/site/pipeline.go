package site

import (
	"fmt"
	"os"
	"strings"

	"github.com/starford/zettelmark/internal/notestore"
	"github.com/starford/zettelmark/internal/parser"
	"github.com/starford/zettelmark/internal/render"
	"github.com/starford/zettelmark/internal/transform"
)

// DocumentContext is what the transforms know about the page being built.
type DocumentContext struct {
	Page  transform.Page
	Title string
	// URL is the absolute URL of the page.
	URL string
}

// Rendered is a transformed page.
type Rendered struct {
	DocumentContext
	// Markdown is the page body without header or footer.
	Markdown string
	// Footer is nil when the page has no reference section.
	Footer  *transform.Footer
	RefHTML string
	Prev    *transform.Page
	Next    *transform.Page
}

// Transform builds the page of c: it adds a title heading to notes,
// rewrites links, works out navigation, splits off the reference footer
// and records the page as a backlink on every note it links to.
//
// Transform appends to notes held by ix, so calls must be sequential.
func Transform(ix *Index, c *Classified, r render.Renderer) (*Rendered, error) {
	page := transform.Page{
		RelPath: c.RelPath,
		AbsPath: c.AbsPath,
		URL:     transform.PageURL(c.RelPath, ix.cfg.UseDirectoryURLs),
		Note:    c.Note,
	}
	out := &Rendered{DocumentContext: DocumentContext{
		Page:  page,
		Title: parser.FilenameTitle(c.RelPath),
		URL:   ix.URL(c.RelPath),
	}}

	content := c.Content
	if content == nil {
		data, err := os.ReadFile(c.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("site: read %s: %w", c.RelPath, err)
		}
		content = data
	}
	header, body, err := parser.Split(content)
	if err != nil {
		body = string(content)
	}

	if c.IsNote() {
		out.Title = c.Note.Title
		body = transform.EnsureTitle(body, c.Note.Title)
	}
	body = transform.RewriteLinks(body, ix.pages, ix.Store, ix.cfg.SiteURL)
	out.Prev, out.Next = transform.Neighbours(page, ix.pages, ix.Store.Notes())
	out.Markdown = body

	if !c.IsNote() {
		return out, nil
	}

	headerBlock := parser.Divider + "\n" + header + parser.Divider + "\n"
	if f, ok := transform.ExtractFooter(headerBlock + body); ok {
		out.Footer = &f
		out.Markdown = ""
		if _, visible, err := parser.Split([]byte(f.Body + "\n")); err == nil {
			out.Markdown = strings.TrimSuffix(visible, "\n")
		}
		if f.Refs != "" {
			html, err := r.Render(f.Refs)
			if err != nil {
				return nil, fmt.Errorf("site: render references of %s: %w", c.RelPath, err)
			}
			out.RefHTML = html
		}
	}

	notestore.ApplyBacklinks(ix.Store, ix.Backlinks, c.Note, out.URL, out.Title)
	return out, nil
}
