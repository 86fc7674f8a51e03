package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/models"
)

// MeetingRow represents a row in the meetings table.
type MeetingRow struct {
	Path        string
	Project     string
	Track       string
	Number      string
	Date        string
	Topic       string
	FinalizedAt string
	Checksum    string
	UpdatedAt   time.Time
}

// ItemRow represents a row in the items table. Notes holds the item's note
// texts joined by newlines.
type ItemRow struct {
	ItemID      string
	Section     string
	Description string
	Status      string
	Assignee    string
	Priority    string
	DueDate     string
	Tags        []string
	Notes       string
}

// SearchResult represents one matching agenda item.
type SearchResult struct {
	Path        string `json:"path"`
	Project     string `json:"project"`
	Track       string `json:"track"`
	Number      string `json:"number"`
	Topic       string `json:"topic"`
	ItemID      string `json:"item_id"`
	Section     string `json:"section"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Snippet     string `json:"snippet"`
}

// OpenItem is an OPEN item of a track's latest meeting.
type OpenItem struct {
	Project     string `json:"project"`
	Track       string `json:"track"`
	Number      string `json:"number"`
	Date        string `json:"date"`
	ItemID      string `json:"item_id"`
	Section     string `json:"section"`
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date,omitempty"`
}

// Rows flattens a decoded meeting into index rows.
func Rows(ref layout.MeetingRef, m *models.Meeting, checksum string) (MeetingRow, []ItemRow) {
	row := MeetingRow{
		Path:        ref.Path(),
		Project:     ref.Project,
		Track:       ref.Track,
		Number:      ref.Number,
		Date:        m.Header.Date,
		Topic:       m.Header.Topic,
		FinalizedAt: m.FinalizedAt,
		Checksum:    checksum,
		UpdatedAt:   time.Now(),
	}
	items := make([]ItemRow, 0, len(m.Items))
	for _, it := range m.Items {
		notes := make([]string, 0, len(it.Notes))
		for _, n := range it.Notes {
			notes = append(notes, n.Text)
		}
		items = append(items, ItemRow{
			ItemID:      it.ID,
			Section:     it.SectionName,
			Description: it.Description,
			Status:      it.Status,
			Assignee:    it.AssigneeID,
			Priority:    it.Priority,
			DueDate:     it.DueDate,
			Tags:        it.Tags,
			Notes:       strings.Join(notes, "\n"),
		})
	}
	return row, items
}

// UpsertMeeting replaces a meeting row together with all of its items and
// FTS entries within a transaction.
func (db *DB) UpsertMeeting(m MeetingRow, items []ItemRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO meetings (path, project, track, number, date, topic, finalized_at, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			date         = excluded.date,
			topic        = excluded.topic,
			finalized_at = excluded.finalized_at,
			checksum     = excluded.checksum,
			updated_at   = excluded.updated_at
	`, m.Path, m.Project, m.Track, m.Number, m.Date, m.Topic, m.FinalizedAt, m.Checksum, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert meeting: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM items WHERE meeting_path = ?`, m.Path); err != nil {
		return fmt.Errorf("index: clear items: %w", err)
	}
	if len(items) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO items
				(meeting_path, item_id, section, description, status, assignee, priority, due_date, tags, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare item insert: %w", err)
		}
		defer stmt.Close()
		for _, it := range items {
			tags := it.Tags
			if tags == nil {
				tags = []string{}
			}
			tagsJSON, _ := json.Marshal(tags)
			if _, err := stmt.Exec(m.Path, it.ItemID, it.Section, it.Description, it.Status,
				it.Assignee, it.Priority, it.DueDate, string(tagsJSON), it.Notes); err != nil {
				return fmt.Errorf("index: insert item: %w", err)
			}
		}
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, m.Path, items); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteMeeting removes a meeting, its items and FTS entries.
func (db *DB) DeleteMeeting(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM items WHERE meeting_path = ?`, path); err != nil {
		return fmt.Errorf("index: delete items: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM meetings WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete meeting: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a meeting, or empty string if
// it is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM meetings WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed meeting.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM meetings`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// OpenItems returns the OPEN items of every track's latest indexed meeting,
// optionally restricted to one assignee. Items are ordered by due date with
// undated items last.
func (db *DB) OpenItems(assignee string) ([]OpenItem, error) {
	rows, err := db.conn.Query(`
		SELECT m.project, m.track, m.number, m.date,
		       i.item_id, i.section, i.description, i.assignee, i.priority, i.due_date
		FROM items i
		JOIN meetings m ON m.path = i.meeting_path
		WHERE i.status = 'OPEN'
		  AND (? = '' OR i.assignee = ?)
		  AND CAST(m.number AS INTEGER) = (
			SELECT MAX(CAST(m2.number AS INTEGER)) FROM meetings m2
			WHERE m2.project = m.project AND m2.track = m.track)
		ORDER BY i.due_date = '', i.due_date, m.project, m.track, i.section, i.description
	`, assignee, assignee)
	if err != nil {
		return nil, fmt.Errorf("index: open items: %w", err)
	}
	defer rows.Close()

	out := []OpenItem{}
	for rows.Next() {
		var it OpenItem
		if err := rows.Scan(&it.Project, &it.Track, &it.Number, &it.Date,
			&it.ItemID, &it.Section, &it.Description, &it.Assignee, &it.Priority, &it.DueDate); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Project, &r.Track, &r.Number, &r.Topic,
			&r.ItemID, &r.Section, &r.Status, &r.Description, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
