//go:build sqlite_fts5

package index

import "testing"

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	s := &Snapshot{Notes: []NoteRow{{
		ID:    "1",
		Path:  "fts.md",
		Title: "FTS Note",
		Tags:  []string{"search"},
		Body:  "Backlinks make powerful cross references between notes.",
	}}}
	if err := db.Replace(s); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "fts.md" {
		t.Errorf("path = %q", results[0].Path)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_ReplaceClearsOldEntries(t *testing.T) {
	db := testDB(t)
	_ = db.Replace(&Snapshot{Notes: []NoteRow{{ID: "1", Path: "a.md", Body: "ephemeral words"}}})
	_ = db.Replace(&Snapshot{Notes: []NoteRow{{ID: "2", Path: "b.md", Body: "lasting words"}}})

	results, err := db.Search("ephemeral", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("stale results: %+v", results)
	}
}
