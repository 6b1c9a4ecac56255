//go:build !sqlite_fts5

package index

import "testing"

func TestSearch_WildcardsAreLiteral(t *testing.T) {
	db := testDB(t)
	s := &Snapshot{Notes: []NoteRow{
		{ID: "1", Path: "a.md", Title: "Discounts", Body: "save 100% today"},
		{ID: "2", Path: "b.md", Title: "Plain", Body: "save 1000 today"},
		{ID: "3", Path: "c.md", Title: "snake_case", Body: "names"},
		{ID: "4", Path: "d.md", Title: "snakeXcase", Body: "names"},
	}}
	if err := db.Replace(s); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	for query, want := range map[string]string{"100%": "1", "snake_case": "3"} {
		results, err := db.Search(query, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", query, err)
		}
		if len(results) != 1 || results[0].ID != want {
			t.Errorf("Search(%q) = %+v, want only note %s", query, results, want)
		}
	}
}
