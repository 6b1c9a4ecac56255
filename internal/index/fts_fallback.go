//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// Without FTS5 the notes table is searched directly, so there is no
// secondary index to keep in step with Replace.
func initFTS(_ *sql.DB) error { return nil }

func ftsClear(_ *sql.Tx) error { return nil }

func ftsInsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches query as a literal substring of a note's title, body or
// tags. Results follow the reading order and carry the first 200
// characters of the body as snippet.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.Query(`
		SELECT id, path, title, substr(body, 1, 200)
		FROM notes
		WHERE title LIKE ?1 ESCAPE '\'
		   OR body LIKE ?1 ESCAPE '\'
		   OR tags LIKE ?1 ESCAPE '\'
		ORDER BY position
		LIMIT ?2
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search notes: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("index: scan search row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
