// Package testutil provides shared test helpers for setting up docs directories and databases.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/starford/zettelmark/internal/index"
	"github.com/starford/zettelmark/internal/parser"
	"github.com/starford/zettelmark/internal/render"
	"github.com/starford/zettelmark/internal/revision"
	"github.com/starford/zettelmark/internal/site"
	"github.com/starford/zettelmark/internal/storage"
)

// RevisionDate is the date every test parser reports for notes without
// last_update.
var RevisionDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "zettelmark-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDocs creates a temporary docs directory with a storage provider.
func TestDocs(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteDocs writes files, keyed by relative path, into store.
func WriteDocs(t *testing.T, store storage.Provider, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		if err := store.Write(rel, []byte(content)); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// TestBuilder returns a builder over store with a fixed revision date and
// UTC dates.
func TestBuilder(store storage.Provider, siteURL string, opts ...site.BuilderOption) *site.Builder {
	p := parser.New(
		parser.WithRevisionSource(revision.Fixed(RevisionDate)),
		parser.WithLocation(time.UTC),
	)
	cfg := site.Config{SiteURL: siteURL, UseDirectoryURLs: true, Workers: 2}
	return site.NewBuilder(store, p, render.NewGoldmark(false), cfg, opts...)
}
