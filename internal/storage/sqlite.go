package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	path    TEXT PRIMARY KEY,
	is_dir  INTEGER NOT NULL DEFAULT 0,
	content BLOB
);
`

// SQLite implements Provider on a single SQLite table. Directories are
// explicit rows so that empty meeting directories (attachments/, exports/)
// are still discoverable.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) a SQLite-backed provider.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping sqlite: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func cleanKey(p string) (string, error) {
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", p)
	}
	c := path.Clean("/" + p)[1:]
	if c != path.Clean(p) && p != "" {
		return "", fmt.Errorf("storage: path escapes data root: %s", p)
	}
	return c, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func mkdirAll(ex execer, dir string) error {
	if dir == "" {
		return nil
	}
	parts := strings.Split(dir, "/")
	for i := range parts {
		p := strings.Join(parts[:i+1], "/")
		if _, err := ex.Exec(`INSERT OR IGNORE INTO entries (path, is_dir) VALUES (?, 1)`, p); err != nil {
			return fmt.Errorf("storage: mkdir %s: %w", p, err)
		}
	}
	return nil
}

// ListDirs returns the sorted immediate subdirectory names of dir.
func (s *SQLite) ListDirs(dir string) ([]string, error) {
	key, err := cleanKey(dir)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if key != "" {
		prefix = key + "/"
	}
	rows, err := s.conn.Query(`SELECT path FROM entries WHERE is_dir = 1 AND substr(path, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		rest := p[len(prefix):]
		if rest != "" && !strings.Contains(rest, "/") {
			out = append(out, rest)
		}
	}
	sort.Strings(out)
	return out, rows.Err()
}

// Exists reports whether path is a stored file or directory.
func (s *SQLite) Exists(p string) bool {
	key, err := cleanKey(p)
	if err != nil {
		return false
	}
	if key == "" {
		return true
	}
	var n int
	if err := s.conn.QueryRow(`SELECT count(*) FROM entries WHERE path = ?`, key).Scan(&n); err != nil {
		return false
	}
	return n > 0
}

// Read returns the content of the file at p.
func (s *SQLite) Read(p string) ([]byte, error) {
	key, err := cleanKey(p)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.conn.QueryRow(`SELECT content FROM entries WHERE path = ? AND is_dir = 0`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: read %s: %w", p, ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", p, err)
	}
	return data, nil
}

// Write stores content at p inside one transaction, creating parent rows.
func (s *SQLite) Write(p string, content []byte) error {
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("storage: empty path")
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if dir := path.Dir(key); dir != "." {
		if err := mkdirAll(tx, dir); err != nil {
			return err
		}
	}
	if content == nil {
		content = []byte{}
	}
	_, err = tx.Exec(`
		INSERT INTO entries (path, is_dir, content) VALUES (?, 0, ?)
		ON CONFLICT(path) DO UPDATE SET is_dir = 0, content = excluded.content
	`, key, content)
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", p, err)
	}
	return tx.Commit()
}

// MkdirAll records dir and its parents.
func (s *SQLite) MkdirAll(dir string) error {
	key, err := cleanKey(dir)
	if err != nil {
		return err
	}
	return mkdirAll(s.conn, key)
}

// RemoveAll deletes p and every entry below it.
func (s *SQLite) RemoveAll(p string) error {
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("storage: refusing to remove data root")
	}
	prefix := key + "/"
	_, err = s.conn.Exec(`DELETE FROM entries WHERE path = ? OR substr(path, 1, ?) = ?`, key, len(prefix), prefix)
	if err != nil {
		return fmt.Errorf("storage: remove %s: %w", p, err)
	}
	return nil
}

// Verify both backends satisfy Provider at compile time.
var (
	_ Provider = (*FS)(nil)
	_ Provider = (*SQLite)(nil)
)
