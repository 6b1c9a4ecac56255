// Package transform rewrites the markdown of rendered pages: link targets,
// the title heading, prev/next navigation and the reference footer.
package transform

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/zettelmark/internal/models"
)

// Well-known pages.
const (
	HomePage = "index.md"
	TagsPage = "tags.md"
)

// Page is a markdown document as seen by the transforms.
type Page struct {
	RelPath string
	AbsPath string
	URL     string
	// Note is nil for documents that are not notes.
	Note *models.Note
}

// PageURL returns the site-relative URL of the document at relPath.
//
// With directory URLs "a/b.md" becomes "a/b/", "a/index.md" becomes "a/"
// and the root index.md becomes "". Otherwise "a/b.md" becomes "a/b.html".
func PageURL(relPath string, useDirectoryURLs bool) string {
	rel := filepath.ToSlash(relPath)
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	if !useDirectoryURLs {
		return stem + ".html"
	}
	dir, base := path.Split(stem)
	if base == "index" {
		return dir
	}
	return stem + "/"
}

func findPage(pages []Page, absPath string) *Page {
	for i := range pages {
		if pages[i].AbsPath == absPath {
			return &pages[i]
		}
	}
	return nil
}

func homePage(pages []Page) *Page {
	for i := range pages {
		if filepath.ToSlash(pages[i].RelPath) == HomePage {
			return &pages[i]
		}
	}
	return nil
}
