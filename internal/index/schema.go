// Package index persists build snapshots in SQLite, with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id          TEXT PRIMARY KEY,
	path        TEXT NOT NULL UNIQUE,
	position    INTEGER NOT NULL DEFAULT 0,
	title       TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	last_update TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	meta        TEXT NOT NULL DEFAULT '{}',
	body        TEXT NOT NULL DEFAULT '',
	ref_html    TEXT NOT NULL DEFAULT '',
	prev_url    TEXT NOT NULL DEFAULT '',
	next_url    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS links (
	source    TEXT NOT NULL,
	target    TEXT NOT NULL,
	target_id TEXT NOT NULL DEFAULT '',
	position  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS backlink_keys (
	link     TEXT NOT NULL,
	source   TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS backlinks (
	target   TEXT NOT NULL,
	url      TEXT NOT NULL,
	title    TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tag_entries (
	tag      TEXT NOT NULL,
	slug     TEXT NOT NULL,
	path     TEXT NOT NULL,
	title    TEXT NOT NULL DEFAULT '',
	year     INTEGER NOT NULL,
	position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS invalid_documents (
	path   TEXT PRIMARY KEY,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS builds (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	documents   INTEGER NOT NULL DEFAULT 0,
	notes       INTEGER NOT NULL DEFAULT 0,
	invalid     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source);
CREATE INDEX IF NOT EXISTS idx_links_target_id ON links(target_id);
CREATE INDEX IF NOT EXISTS idx_backlinks_target ON backlinks(target);
CREATE INDEX IF NOT EXISTS idx_tag_entries_tag ON tag_entries(tag);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
