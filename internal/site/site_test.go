package site_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/zettelmark/internal/apperr"
	"github.com/starford/zettelmark/internal/models"
	"github.com/starford/zettelmark/internal/parser"
	"github.com/starford/zettelmark/internal/render"
	"github.com/starford/zettelmark/internal/revision"
	"github.com/starford/zettelmark/internal/site"
	"github.com/starford/zettelmark/internal/storage"
)

const (
	alphaRel = "zettel/20230101000000_alpha.md"
	betaRel  = "zettel/20230102000000_beta.md"
	siteURL  = "https://example.org/"
)

var fixture = map[string]string{
	"index.md":  "# Home\n\nStart at [[20230101000000_alpha]].\n",
	"tags.md":   "# Tags\n",
	"broken.md": "---\ntitle: no id\n---\nbody\n",
	alphaRel: "---\nid: 20230101000000\ntags: [go]\n---\n" +
		"Alpha links to [[20230102000000_beta]].\n---\nSource: Go docs\n",
	betaRel: "---\nid: 20230102000000\ntitle: Beta\n---\n# Beta\nSee [back](20230101000000_alpha.md)\n",
}

func newParser() *parser.Parser {
	return parser.New(
		parser.WithRevisionSource(revision.Fixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
		parser.WithLocation(time.UTC),
	)
}

func writeDocs(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	for rel, content := range files {
		require.NoError(t, fs.Write(rel, []byte(content)))
	}
	return fs
}

func cfg() site.Config {
	return site.Config{SiteURL: siteURL, UseDirectoryURLs: true, Workers: 2}
}

func byRel(t *testing.T, res *site.Result, rel string) *site.Rendered {
	t.Helper()
	for _, r := range res.Rendered {
		if r.Page.RelPath == rel {
			return r
		}
	}
	t.Fatalf("no rendered page %s", rel)
	return nil
}

func TestBuild(t *testing.T) {
	docs := writeDocs(t, fixture)
	out, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, out.Write("stale.md", []byte("old")))
	require.NoError(t, out.Write("gone.ref.html", []byte("old")))

	b := site.NewBuilder(docs, newParser(), render.NewGoldmark(false), cfg(), site.WithOutput(out))
	res, err := b.Build(context.Background())
	require.NoError(t, err)

	ix := res.Index
	require.Equal(t, 2, ix.Store.Len())
	assert.Len(t, ix.Invalid(), 3)
	assert.Equal(t, []string{"20230102000000_beta.md", "20230101000000_alpha.md"}, ix.Backlinks.Links())

	alpha := byRel(t, res, alphaRel)
	assert.Equal(t, "Alpha", alpha.Title)
	assert.Equal(t, siteURL+"zettel/20230101000000_alpha/", alpha.URL)
	assert.Equal(t, "# Alpha\nAlpha links to [Beta](https://example.org/zettel/20230102000000_beta/).", alpha.Markdown)
	require.NotNil(t, alpha.Footer)
	assert.Equal(t, " - Source: Go docs", alpha.Footer.Refs)
	assert.Contains(t, alpha.RefHTML, "<li>Source: Go docs</li>")
	require.NotNil(t, alpha.Prev)
	assert.Equal(t, "index.md", alpha.Prev.RelPath)
	require.NotNil(t, alpha.Next)
	assert.Equal(t, betaRel, alpha.Next.RelPath)

	beta := byRel(t, res, betaRel)
	assert.Equal(t, "# Beta\nSee [back](https://example.org/zettel/20230101000000_alpha/)\n", beta.Markdown)
	assert.Nil(t, beta.Footer)
	assert.Nil(t, beta.Next)

	home := byRel(t, res, "index.md")
	assert.Equal(t, "# Home\n\nStart at [Alpha](https://example.org/zettel/20230101000000_alpha/).\n", home.Markdown)
	assert.Nil(t, home.Prev)
	require.NotNil(t, home.Next)
	assert.Equal(t, alphaRel, home.Next.RelPath)

	betaNote, ok := ix.Store.ByPath(beta.Page.AbsPath)
	require.True(t, ok)
	assert.Equal(t, []models.Backlink{{URL: alpha.URL, Title: "Alpha"}}, betaNote.Backlinks)
	alphaNote, ok := ix.Store.ByPath(alpha.Page.AbsPath)
	require.True(t, ok)
	assert.Equal(t, []models.Backlink{{URL: beta.URL, Title: "Beta"}}, alphaNote.Backlinks)

	require.Len(t, ix.Tags, 1)
	assert.Equal(t, "go", ix.Tags[0].Tag)

	assert.Equal(t, 6, res.Written)
	assert.Equal(t, 2, res.Pruned)
	got, err := out.Read(alphaRel)
	require.NoError(t, err)
	assert.Equal(t, alpha.Markdown, string(got))
	ref, err := out.Read(site.RefPath(alphaRel))
	require.NoError(t, err)
	assert.Equal(t, alpha.RefHTML, string(ref))
	_, err = out.Read("stale.md")
	assert.Error(t, err)
}

func TestBuild_WithoutOutput(t *testing.T) {
	docs := writeDocs(t, fixture)
	res, err := site.NewBuilder(docs, newParser(), render.NewGoldmark(false), cfg()).Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Written)
	assert.Len(t, res.Rendered, len(fixture))
}

func TestScan_InvalidDocumentsDoNotStopTheScan(t *testing.T) {
	docs := []site.Document{
		{RelPath: "a.md", AbsPath: "/docs/a.md", Content: []byte("---\nid: 1\n---\n")},
		{RelPath: "bad.md", AbsPath: "/docs/bad.md", Content: []byte("no header")},
		{RelPath: "b.md", AbsPath: "/docs/b.md", Content: []byte("---\nid: 2\n---\n")},
	}
	ix, err := site.Scan(context.Background(), docs, newParser(), cfg(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Store.Len())

	invalid := ix.Invalid()
	require.Len(t, invalid, 1)
	assert.Equal(t, "bad.md", invalid[0].RelPath)
	var fe *parser.FormatError
	require.True(t, errors.As(invalid[0].Err, &fe))
	assert.Equal(t, parser.ReasonUnclosedHeader, fe.Reason)
}

func TestScan_DuplicateIDs(t *testing.T) {
	docs := []site.Document{
		{RelPath: "first.md", AbsPath: "/docs/first.md", Content: []byte("---\nid: 7\n---\n")},
		{RelPath: "second.md", AbsPath: "/docs/second.md", Content: []byte("---\nid: 7\n---\n")},
	}
	ix, err := site.Scan(context.Background(), docs, newParser(), cfg(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, ix.Store.Len())
	assert.Equal(t, "/docs/first.md", ix.Notes()[0].Path)

	require.Len(t, ix.Invalid(), 1)
	assert.ErrorIs(t, ix.Invalid()[0].Err, apperr.ErrAlreadyExists)
}

func TestScan_ReadsMissingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n.md")
	require.NoError(t, os.WriteFile(path, []byte("---\nid: 3\n---\n# N\n"), 0o644))

	ix, err := site.Scan(context.Background(), []site.Document{{RelPath: "n.md", AbsPath: path}}, newParser(), cfg(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, ix.Store.Len())

	r, err := site.Transform(ix, ix.Documents[0], render.NewGoldmark(false))
	require.NoError(t, err)
	assert.Equal(t, "# N\n", r.Markdown)
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	docs := []site.Document{{RelPath: "a.md", AbsPath: "/docs/a.md", Content: []byte("---\nid: 1\n---\n")}}
	_, err := site.Scan(ctx, docs, newParser(), cfg(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransform_NonNoteHeaderIsStripped(t *testing.T) {
	docs := []site.Document{{RelPath: "about.md", AbsPath: "/docs/about.md", Content: []byte("---\ntitle: About\n---\nbody\n---\nnot a footer\n")}}
	ix, err := site.Scan(context.Background(), docs, newParser(), cfg(), nil)
	require.NoError(t, err)

	r, err := site.Transform(ix, ix.Documents[0], render.NewGoldmark(false))
	require.NoError(t, err)
	assert.Equal(t, "body\n---\nnot a footer\n", r.Markdown)
	assert.Nil(t, r.Footer)
	assert.Equal(t, "About", r.Title)
}

func TestRefPath(t *testing.T) {
	assert.Equal(t, "a/b.ref.html", site.RefPath("a/b.md"))
}
