package index

import (
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/starford/zettelmark/internal/apperr"
	"github.com/starford/zettelmark/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "zettelmark-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Notes: []NoteRow{
			{
				ID: "1", Path: "zettel/a.md", Title: "Alpha", URL: "https://x/zettel/a/",
				LastUpdate: "2023-01-01", Checksum: "c1", Tags: []string{"go"},
				Meta: map[string]any{"id": 1}, Body: "# Alpha\nalpha body about gophers",
				RefHTML: "<ul><li>ref</li></ul>", NextURL: "https://x/zettel/b/",
				Backlinks: []models.Backlink{{URL: "https://x/zettel/b/", Title: "Beta"}},
			},
			{
				ID: "2", Path: "zettel/b.md", Title: "Beta", URL: "https://x/zettel/b/",
				LastUpdate: "2024-01-01", Checksum: "c2", Tags: []string{"rust"},
				Body: "# Beta\nbeta body", PrevURL: "https://x/zettel/a/",
			},
		},
		Links: []LinkRow{
			{Source: "2", Target: "a", TargetID: "1"},
			{Source: "2", Target: "a.md", TargetID: "1"},
			{Source: "2", Target: "missing"},
		},
		BacklinkKeys: []BacklinkKeyRow{{Link: "a.md", Source: "2"}},
		Tags: []TagRow{
			{Tag: "go", Slug: "go", Path: "zettel/a.md", Title: "Alpha", Year: 5000},
			{Tag: "rust", Slug: "rust", Path: "zettel/b.md", Title: "Beta", Year: 2020},
		},
		Invalid: []InvalidRow{{Path: "index.md", Reason: "unclosed header"}},
		Build: BuildRow{
			StartedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			Duration:  1500 * time.Millisecond,
			Documents: 3, Notes: 2, Invalid: 1,
		},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"notes", "links", "backlink_keys", "backlinks", "tag_entries", "invalid_documents", "builds"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestReplaceAndGetNote(t *testing.T) {
	db := testDB(t)
	if err := db.Replace(sampleSnapshot()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	for _, key := range []string{"1", "zettel/a.md"} {
		n, err := db.GetNote(key)
		if err != nil {
			t.Fatalf("GetNote(%q): %v", key, err)
		}
		if n.Title != "Alpha" || n.RefHTML != "<ul><li>ref</li></ul>" {
			t.Errorf("GetNote(%q) = %+v", key, n)
		}
		if len(n.Backlinks) != 1 || n.Backlinks[0].Title != "Beta" {
			t.Errorf("backlinks = %+v", n.Backlinks)
		}
		if len(n.Tags) != 1 || n.Tags[0] != "go" {
			t.Errorf("tags = %v", n.Tags)
		}
	}

	b, err := db.GetNote("2")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if len(b.Links) != 3 || b.Links[0] != "a" || b.Links[2] != "missing" {
		t.Errorf("links = %v", b.Links)
	}
	if len(b.Backlinks) != 0 {
		t.Errorf("backlinks = %v, want none", b.Backlinks)
	}

	if _, err := db.GetNote("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReplaceDropsPreviousSnapshot(t *testing.T) {
	db := testDB(t)
	if err := db.Replace(sampleSnapshot()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	next := &Snapshot{
		Notes: []NoteRow{{ID: "9", Path: "c.md", Title: "Gamma"}},
		Build: BuildRow{StartedAt: time.Now(), Documents: 1, Notes: 1},
	}
	if err := db.Replace(next); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, err := db.GetNote("1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old note still present: %v", err)
	}
	keys, err := db.BacklinkKeys()
	if err != nil {
		t.Fatalf("BacklinkKeys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("backlink keys = %v", keys)
	}
	b, err := db.LastBuild()
	if err != nil {
		t.Fatalf("LastBuild: %v", err)
	}
	if b.Documents != 1 {
		t.Errorf("last build documents = %d", b.Documents)
	}
}

func TestListNotes(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(sampleSnapshot())

	rows, total, err := db.ListNotes(10, 0, "", "")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || len(rows) != 2 || rows[0].ID != "1" {
		t.Errorf("rows = %+v, total = %d", rows, total)
	}

	rows, total, err = db.ListNotes(10, 0, "rust", "")
	if err != nil {
		t.Fatalf("ListNotes(tag): %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != "2" {
		t.Errorf("tag filter rows = %+v, total = %d", rows, total)
	}

	rows, _, err = db.ListNotes(10, 0, "", "last_update")
	if err != nil {
		t.Fatalf("ListNotes(sort): %v", err)
	}
	if rows[0].ID != "2" {
		t.Errorf("first by last_update = %s, want 2", rows[0].ID)
	}

	rows, total, _ = db.ListNotes(1, 1, "", "")
	if total != 2 || len(rows) != 1 || rows[0].ID != "2" {
		t.Errorf("page 2 = %+v", rows)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(sampleSnapshot())

	results, err := db.Search("gophers", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "1" || results[0].Path != "zettel/a.md" {
		t.Errorf("results = %+v", results)
	}
}

func TestGraph(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(sampleSnapshot())

	nodes, links, err := db.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(nodes))
	}
	if len(links) != 1 || links[0].Source != "2" || links[0].Target != "1" {
		t.Errorf("links = %+v", links)
	}
}

func TestTagsAndInvalid(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(sampleSnapshot())

	groups, err := db.Tags()
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(groups) != 2 || groups[0].Tag != "go" || len(groups[1].Entries) != 1 {
		t.Errorf("groups = %+v", groups)
	}

	invalid, err := db.Invalid()
	if err != nil {
		t.Fatalf("Invalid: %v", err)
	}
	if len(invalid) != 1 || invalid[0].Reason != "unclosed header" {
		t.Errorf("invalid = %+v", invalid)
	}
}

func TestLastBuild(t *testing.T) {
	db := testDB(t)
	if _, err := db.LastBuild(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	_ = db.Replace(sampleSnapshot())
	b, err := db.LastBuild()
	if err != nil {
		t.Fatalf("LastBuild: %v", err)
	}
	if b.Duration != 1500*time.Millisecond || b.Notes != 2 || b.Invalid != 1 {
		t.Errorf("build = %+v", b)
	}
	if !b.StartedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("started_at = %v", b.StartedAt)
	}
}

func TestReplace_MetaKeysStringified(t *testing.T) {
	db := testDB(t)
	s := sampleSnapshot()
	s.Notes[0].Meta = map[string]any{
		"id":     1,
		"years":  map[any]any{2023: "draft", true: []any{map[any]any{1: "x"}}},
		"source": "book",
	}
	s.Notes[1].Meta = map[string]any{"id": 2, "score": math.NaN()}
	if err := db.Replace(s); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	n, err := db.GetNote("1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	years, ok := n.Meta["years"].(map[string]any)
	if !ok {
		t.Fatalf("years = %#v, want map[string]any", n.Meta["years"])
	}
	if years["2023"] != "draft" {
		t.Errorf("years[2023] = %v, want draft", years["2023"])
	}
	nested, ok := years["true"].([]any)
	if !ok || len(nested) != 1 {
		t.Fatalf("years[true] = %#v", years["true"])
	}
	if inner, _ := nested[0].(map[string]any); inner["1"] != "x" {
		t.Errorf("nested = %#v", nested[0])
	}
	if n.Meta["source"] != "book" {
		t.Errorf("source = %v", n.Meta["source"])
	}

	// Unencodable values still store the note, without its header.
	n, err = db.GetNote("2")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if len(n.Meta) != 0 {
		t.Errorf("meta = %#v, want empty", n.Meta)
	}
}
