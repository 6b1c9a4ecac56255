package transform

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/zettelmark/internal/models"
	"github.com/starford/zettelmark/internal/notestore"
	"github.com/starford/zettelmark/internal/parser"
)

// LinkResolver finds the note behind a partial path.
type LinkResolver interface {
	ByPartialPath(fragment string) (*models.Note, bool)
}

// RewriteLinks points internal links of markdown at their rendered pages.
//
// Wiki links are rewritten first, then markdown links, over the whole text.
// A link matches the first page, in the order given, whose relative path
// contains the link target with ".md" appended. Matched links get the
// absolute page URL; when they carried no title of their own, the title of
// the note resolved from the target is used instead, or the raw target if
// none resolves. Unmatched links are emitted as plain markdown links.
func RewriteLinks(markdown string, pages []Page, notes LinkResolver, siteURL string) string {
	markdown = rewrite(parser.WikiLinkRe, markdown, pages, notes, siteURL)
	return rewrite(parser.MarkdownLinkRe, markdown, pages, notes, siteURL)
}

func rewrite(re *regexp.Regexp, markdown string, pages []Page, notes LinkResolver, siteURL string) string {
	return re.ReplaceAllStringFunc(markdown, func(match string) string {
		m := parser.MatchLink(re, match, re.FindStringSubmatchIndex(match))
		url, title := m.URL, m.Title
		target := notestore.NormalizeLink(url)

		for _, p := range pages {
			if !strings.Contains(filepath.ToSlash(p.RelPath), target) {
				continue
			}
			if title == target || title+notestore.LinkExt == target {
				title = url
				if n, ok := notes.ByPartialPath(target); ok {
					title = n.Title
				}
			}
			return fmt.Sprintf("[%s](%s)", title, siteURL+p.URL)
		}
		return fmt.Sprintf("[%s](%s)", title, url)
	})
}
