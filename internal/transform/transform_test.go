package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/zettelmark/internal/models"
	"github.com/starford/zettelmark/internal/notestore"
	"github.com/starford/zettelmark/internal/transform"
)

func TestPageURL(t *testing.T) {
	tests := []struct {
		rel  string
		dirs bool
		want string
	}{
		{"index.md", true, ""},
		{"a/index.md", true, "a/"},
		{"a/b.md", true, "a/b/"},
		{"note.md", true, "note/"},
		{"a/b.md", false, "a/b.html"},
		{"index.md", false, "index.html"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, transform.PageURL(tt.rel, tt.dirs), tt.rel)
	}
}

func TestEnsureTitle(t *testing.T) {
	assert.Equal(t, "# Note\nbody\n", transform.EnsureTitle("body\n", "Note"))
	assert.Equal(t, "\n  # Has\nbody", transform.EnsureTitle("\n  # Has\nbody", "Note"))
	assert.Equal(t, "intro\n# Later\n", transform.EnsureTitle("intro\n# Later\n", "Note"))
	assert.Equal(t, "# Note\n## Sub\n", transform.EnsureTitle("## Sub\n", "Note"))
}

func fixture() ([]transform.Page, *notestore.Store, []*models.Note) {
	alpha := &models.Note{ID: "1", Title: "Alpha Note", Path: "/docs/zettel/alpha.md"}
	beta := &models.Note{ID: "2", Title: "Beta Note", Path: "/docs/zettel/beta.md"}
	store := notestore.New(beta, alpha)
	pages := []transform.Page{
		{RelPath: "index.md", AbsPath: "/docs/index.md", URL: ""},
		{RelPath: "zettel/beta.md", AbsPath: beta.Path, URL: "zettel/beta/", Note: beta},
		{RelPath: "zettel/alpha.md", AbsPath: alpha.Path, URL: "zettel/alpha/", Note: alpha},
		{RelPath: "tags.md", AbsPath: "/docs/tags.md", URL: "tags/"},
		{RelPath: "about.md", AbsPath: "/docs/about.md", URL: "about/"},
	}
	return pages, store, store.Notes()
}

func TestRewriteLinks(t *testing.T) {
	pages, store, _ := fixture()
	const site = "https://example.org/"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"untitled wiki link takes note title", "see [[alpha]]", "see [Alpha Note](https://example.org/zettel/alpha/)"},
		{"titled wiki link keeps title", "[[alpha|custom]]", "[custom](https://example.org/zettel/alpha/)"},
		{"markdown link", "[read](zettel/beta.md)", "[read](https://example.org/zettel/beta/)"},
		{"markdown link titled with its target", "[beta](beta)", "[Beta Note](https://example.org/zettel/beta/)"},
		{"empty markdown title stays empty", "[](zettel/beta.md)", "[](https://example.org/zettel/beta/)"},
		{"non-note page", "[[about]]", "[about](https://example.org/about/)"},
		{"unknown wiki link", "[[nowhere|Label]]", "[Label](nowhere)"},
		{"external link", "[site](https://go.dev)", "[site](https://go.dev)"},
		{"two links on a line", "[[alpha]] and [[beta]]", "[Alpha Note](https://example.org/zettel/alpha/) and [Beta Note](https://example.org/zettel/beta/)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transform.RewriteLinks(tt.in, pages, store, site))
		})
	}
}

func TestNeighbours(t *testing.T) {
	pages, _, notes := fixture()
	home, beta, alpha, tags, about := pages[0], pages[1], pages[2], pages[3], pages[4]

	prev, next := transform.Neighbours(home, pages, notes)
	assert.Nil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, "zettel/alpha.md", next.RelPath)

	prev, next = transform.Neighbours(alpha, pages, notes)
	require.NotNil(t, prev)
	assert.Equal(t, "index.md", prev.RelPath)
	require.NotNil(t, next)
	assert.Equal(t, "zettel/beta.md", next.RelPath)

	prev, next = transform.Neighbours(beta, pages, notes)
	require.NotNil(t, prev)
	assert.Equal(t, "zettel/alpha.md", prev.RelPath)
	assert.Nil(t, next)

	prev, next = transform.Neighbours(tags, pages, notes)
	assert.Nil(t, prev)
	assert.Nil(t, next)

	prev, next = transform.Neighbours(about, pages, notes)
	assert.Nil(t, prev)
	assert.Nil(t, next)
}
