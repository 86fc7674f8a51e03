//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the items table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ string, _ []ItemRow) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// Search performs a LIKE-based search over item descriptions, notes, tags and
// section names (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT m.path, m.project, m.track, m.number, m.topic,
		       i.item_id, i.section, i.status, i.description, substr(i.notes, 1, 200)
		FROM items i
		JOIN meetings m ON m.path = i.meeting_path
		WHERE i.description LIKE ? OR i.notes LIKE ? OR i.tags LIKE ? OR i.section LIKE ?
		ORDER BY m.project, m.track, m.number DESC
		LIMIT ?
	`, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}
