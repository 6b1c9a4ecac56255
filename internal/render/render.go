// Package render converts markdown fragments to HTML.
package render

import (
	"bytes"
	"fmt"

	gm "github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to HTML.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Goldmark renders GitHub flavoured markdown.
type Goldmark struct {
	md gm.Markdown
}

// NewGoldmark returns a Goldmark renderer. With unsafe set, raw HTML in
// the source is passed through.
func NewGoldmark(unsafe bool) *Goldmark {
	rendererOpts := []renderer.Option{html.WithXHTML()}
	if unsafe {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	return &Goldmark{md: gm.New(
		gm.WithExtensions(extension.GFM, extension.Footnote),
		gm.WithRendererOptions(rendererOpts...),
	)}
}

// Render implements Renderer.
func (g *Goldmark) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render: convert: %w", err)
	}
	return buf.String(), nil
}
