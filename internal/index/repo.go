package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/zettelmark/internal/apperr"
	"github.com/starford/zettelmark/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	ID         string
	Path       string
	Title      string
	URL        string
	LastUpdate string
	Checksum   string
	Tags       []string
	Meta       map[string]any
	Body       string
	RefHTML    string
	PrevURL    string
	NextURL    string
	Links      []string
	Backlinks  []models.Backlink
}

// LinkRow is one outgoing link of a note. TargetID is empty for links
// that resolve to no note.
type LinkRow struct {
	Source   string
	Target   string
	TargetID string
}

// BacklinkKeyRow is one (link, source) pair of the backlink map.
type BacklinkKeyRow struct {
	Link   string `json:"link"`
	Source string `json:"source"`
}

// TagRow is a document listed under a tag.
type TagRow struct {
	Tag   string `json:"-"`
	Slug  string `json:"-"`
	Path  string `json:"path"`
	Title string `json:"title"`
	Year  int    `json:"year"`
}

// TagGroup is a tag with its documents, in stored order.
type TagGroup struct {
	Tag     string   `json:"tag"`
	Slug    string   `json:"slug"`
	Entries []TagRow `json:"entries"`
}

// InvalidRow records a document that did not parse into a note.
type InvalidRow struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// BuildRow summarizes one build.
type BuildRow struct {
	ID        int64         `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Documents int           `json:"documents"`
	Notes     int           `json:"notes"`
	Invalid   int           `json:"invalid"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GraphNode is a note in the link graph.
type GraphNode struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

// GraphLink is a resolved link between two notes.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Snapshot is everything one build persists.
type Snapshot struct {
	Notes        []NoteRow
	Links        []LinkRow
	BacklinkKeys []BacklinkKeyRow
	Tags         []TagRow
	Invalid      []InvalidRow
	Build        BuildRow
}

// Replace swaps the stored snapshot for s within a single transaction.
func (db *DB) Replace(s *Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, table := range []string{"notes", "links", "backlink_keys", "backlinks", "tag_entries", "invalid_documents"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("index: clear %s: %w", table, err)
		}
	}
	if err := ftsClear(tx); err != nil {
		return err
	}

	noteStmt, err := tx.Prepare(`
		INSERT INTO notes (id, path, position, title, url, last_update, checksum, tags, meta, body, ref_html, prev_url, next_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare note insert: %w", err)
	}
	defer noteStmt.Close()
	blStmt, err := tx.Prepare(`INSERT INTO backlinks (target, url, title, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare backlink insert: %w", err)
	}
	defer blStmt.Close()

	for i, n := range s.Notes {
		tagsJSON, _ := json.Marshal(nonNil(n.Tags))
		metaJSON := encodeMeta(n)
		if _, err := noteStmt.Exec(n.ID, n.Path, i, n.Title, n.URL, n.LastUpdate, n.Checksum,
			string(tagsJSON), string(metaJSON), n.Body, n.RefHTML, n.PrevURL, n.NextURL); err != nil {
			return fmt.Errorf("index: insert note %s: %w", n.ID, err)
		}
		if err := ftsInsert(tx, n.ID, n.Title, n.Body, n.Tags); err != nil {
			return err
		}
		for j, bl := range n.Backlinks {
			if _, err := blStmt.Exec(n.ID, bl.URL, bl.Title, j); err != nil {
				return fmt.Errorf("index: insert backlink: %w", err)
			}
		}
	}

	if err := insertRows(tx, `INSERT INTO links (source, target, target_id, position) VALUES (?, ?, ?, ?)`,
		s.Links, func(i int, l LinkRow) []any { return []any{l.Source, l.Target, l.TargetID, i} }); err != nil {
		return err
	}
	if err := insertRows(tx, `INSERT INTO backlink_keys (link, source, position) VALUES (?, ?, ?)`,
		s.BacklinkKeys, func(i int, k BacklinkKeyRow) []any { return []any{k.Link, k.Source, i} }); err != nil {
		return err
	}
	if err := insertRows(tx, `INSERT INTO tag_entries (tag, slug, path, title, year, position) VALUES (?, ?, ?, ?, ?, ?)`,
		s.Tags, func(i int, t TagRow) []any { return []any{t.Tag, t.Slug, t.Path, t.Title, t.Year, i} }); err != nil {
		return err
	}
	if err := insertRows(tx, `INSERT OR REPLACE INTO invalid_documents (path, reason) VALUES (?, ?)`,
		s.Invalid, func(_ int, r InvalidRow) []any { return []any{r.Path, r.Reason} }); err != nil {
		return err
	}

	b := s.Build
	if _, err := tx.Exec(`
		INSERT INTO builds (started_at, duration_ms, documents, notes, invalid)
		VALUES (?, ?, ?, ?, ?)
	`, b.StartedAt.UTC(), b.Duration.Milliseconds(), b.Documents, b.Notes, b.Invalid); err != nil {
		return fmt.Errorf("index: insert build: %w", err)
	}

	return tx.Commit()
}

func insertRows[T any](tx *sql.Tx, query string, rows []T, args func(int, T) []any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("index: prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range rows {
		if _, err := stmt.Exec(args(i, r)...); err != nil {
			return fmt.Errorf("index: insert: %w", err)
		}
	}
	return nil
}

const noteColumns = `id, path, title, url, last_update, checksum, tags, meta, body, ref_html, prev_url, next_url`

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(sc scanner) (*NoteRow, error) {
	var n NoteRow
	var tagsJSON, metaJSON string
	if err := sc.Scan(&n.ID, &n.Path, &n.Title, &n.URL, &n.LastUpdate, &n.Checksum,
		&tagsJSON, &metaJSON, &n.Body, &n.RefHTML, &n.PrevURL, &n.NextURL); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
	_ = json.Unmarshal([]byte(metaJSON), &n.Meta)
	return &n, nil
}

// GetNote returns the note whose id or path is key, with its links and
// backlinks.
func (db *DB) GetNote(key string) (*NoteRow, error) {
	row := db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ? OR path = ? LIMIT 1`, key, key)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}

	links, err := db.conn.Query(`SELECT target FROM links WHERE source = ? ORDER BY position`, n.ID)
	if err != nil {
		return nil, fmt.Errorf("index: note links: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var target string
		if err := links.Scan(&target); err != nil {
			return nil, err
		}
		n.Links = append(n.Links, target)
	}
	if err := links.Err(); err != nil {
		return nil, err
	}

	if n.Backlinks, err = db.Backlinks(n.ID); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotes returns a page of notes ordered by sort ("id", "title" or
// "last_update", newest first), optionally restricted to a tag, and the
// total number of matching notes.
func (db *DB) ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order := "position"
	switch sort {
	case "title":
		order = "title COLLATE NOCASE, position"
	case "last_update":
		order = "last_update DESC, position"
	}

	where, args := "", []any{}
	if tag != "" {
		where = `WHERE EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+noteColumns+` FROM notes `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

// Backlinks returns the pages recorded as linking to the note with id.
func (db *DB) Backlinks(id string) ([]models.Backlink, error) {
	rows, err := db.conn.Query(`SELECT url, title FROM backlinks WHERE target = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	out := []models.Backlink{}
	for rows.Next() {
		var b models.Backlink
		if err := rows.Scan(&b.URL, &b.Title); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BacklinkKeys returns the stored backlink map in discovery order.
func (db *DB) BacklinkKeys() ([]BacklinkKeyRow, error) {
	rows, err := db.conn.Query(`SELECT link, source FROM backlink_keys ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("index: backlink keys: %w", err)
	}
	defer rows.Close()

	var out []BacklinkKeyRow
	for rows.Next() {
		var k BacklinkKeyRow
		if err := rows.Scan(&k.Link, &k.Source); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Graph returns every note and every link that resolves to a note.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	rows, err := db.conn.Query(`SELECT id, path, title FROM notes ORDER BY position`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer rows.Close()
	nodes := []GraphNode{}
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.ID, &n.Path, &n.Title); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	lrows, err := db.conn.Query(`
		SELECT source, target_id FROM links
		WHERE target_id != ''
		GROUP BY source, target_id
		ORDER BY min(position)
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer lrows.Close()
	links := []GraphLink{}
	for lrows.Next() {
		var l GraphLink
		if err := lrows.Scan(&l.Source, &l.Target); err != nil {
			return nil, nil, err
		}
		links = append(links, l)
	}
	return nodes, links, lrows.Err()
}

// Tags returns the tag index grouped by tag, in stored order.
func (db *DB) Tags() ([]TagGroup, error) {
	rows, err := db.conn.Query(`SELECT tag, slug, path, title, year FROM tag_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()

	var out []TagGroup
	for rows.Next() {
		var t TagRow
		if err := rows.Scan(&t.Tag, &t.Slug, &t.Path, &t.Title, &t.Year); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Tag != t.Tag {
			out = append(out, TagGroup{Tag: t.Tag, Slug: t.Slug})
		}
		g := &out[len(out)-1]
		g.Entries = append(g.Entries, t)
	}
	return out, rows.Err()
}

// Invalid returns the documents rejected by the last build.
func (db *DB) Invalid() ([]InvalidRow, error) {
	rows, err := db.conn.Query(`SELECT path, reason FROM invalid_documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: invalid documents: %w", err)
	}
	defer rows.Close()

	var out []InvalidRow
	for rows.Next() {
		var r InvalidRow
		if err := rows.Scan(&r.Path, &r.Reason); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastBuild returns the most recent build, or apperr.ErrNotFound.
func (db *DB) LastBuild() (*BuildRow, error) {
	var b BuildRow
	var ms int64
	err := db.conn.QueryRow(`
		SELECT id, started_at, duration_ms, documents, notes, invalid
		FROM builds ORDER BY id DESC LIMIT 1
	`).Scan(&b.ID, &b.StartedAt, &ms, &b.Documents, &b.Notes, &b.Invalid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: last build: %w", err)
	}
	b.Duration = time.Duration(ms) * time.Millisecond
	return &b, nil
}

// encodeMeta stores the header of n as JSON. Mapping keys are stringified;
// values JSON cannot hold (NaN, infinities) make the whole header fall back
// to {} with a warning.
func encodeMeta(n NoteRow) []byte {
	if n.Meta == nil {
		return []byte("{}")
	}
	data, err := json.Marshal(jsonValue(n.Meta))
	if err != nil {
		slog.Warn("index: note header not stored",
			slog.String("id", n.ID),
			slog.String("path", n.Path),
			slog.String("error", err.Error()))
		return []byte("{}")
	}
	return data
}

// jsonValue rewrites YAML-decoded maps with non-string keys into
// map[string]any, recursively.
func jsonValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = jsonValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = jsonValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = jsonValue(val)
		}
		return out
	default:
		return v
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
