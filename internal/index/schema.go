// Package index keeps a SQLite catalog of meetings and their agenda items
// for search and open-item queries. The XML tree stays the source of truth:
// the index is rebuilt from it by Sync and kept current by Watch.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS meetings (
	path         TEXT PRIMARY KEY,
	project      TEXT NOT NULL,
	track        TEXT NOT NULL,
	number       TEXT NOT NULL,
	date         TEXT NOT NULL DEFAULT '',
	topic        TEXT NOT NULL DEFAULT '',
	finalized_at TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT '',
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
	meeting_path TEXT NOT NULL REFERENCES meetings(path) ON DELETE CASCADE,
	item_id      TEXT NOT NULL,
	section      TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'OPEN',
	assignee     TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL DEFAULT 'Normal',
	due_date     TEXT NOT NULL DEFAULT '',
	tags         TEXT NOT NULL DEFAULT '[]',
	notes        TEXT NOT NULL DEFAULT '',
	UNIQUE(meeting_path, item_id)
);

CREATE INDEX IF NOT EXISTS idx_meetings_track ON meetings(project, track);
CREATE INDEX IF NOT EXISTS idx_items_status ON items(status, assignee);
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
