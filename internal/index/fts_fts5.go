//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
			meeting_path UNINDEXED,
			item_id UNINDEXED,
			description,
			notes,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, meetingPath string, items []ItemRow) error {
	if err := ftsDelete(tx, meetingPath); err != nil {
		return err
	}
	for _, it := range items {
		_, err := tx.Exec(`INSERT INTO items_fts (meeting_path, item_id, description, notes, tags) VALUES (?, ?, ?, ?, ?)`,
			meetingPath, it.ItemID, it.Description, it.Notes, strings.Join(it.Tags, " "))
		if err != nil {
			return fmt.Errorf("index: upsert fts: %w", err)
		}
	}
	return nil
}

func ftsDelete(tx *sql.Tx, meetingPath string) error {
	_, err := tx.Exec(`DELETE FROM items_fts WHERE meeting_path = ?`, meetingPath)
	return err
}

// Search performs an FTS5 full-text search over agenda items.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT m.path, m.project, m.track, m.number, m.topic,
		       i.item_id, i.section, i.status, i.description,
		       snippet(items_fts, 3, '<b>', '</b>', '...', 32)
		FROM items_fts
		JOIN items i ON i.meeting_path = items_fts.meeting_path AND i.item_id = items_fts.item_id
		JOIN meetings m ON m.path = items_fts.meeting_path
		WHERE items_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}
