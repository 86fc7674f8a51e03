// Package testutil provides shared test helpers for setting up data roots,
// stores and index databases.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/minutebook/internal/index"
	"github.com/starford/minutebook/internal/storage"
	"github.com/starford/minutebook/internal/store"
)

// Logger returns a JSON logger that discards its output.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary index database that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a store over a temporary data root and returns the root.
func TestStore(t *testing.T, opts ...store.Option) (string, *store.Store) {
	t.Helper()
	root := t.TempDir()
	fs, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.New(fs, append([]store.Option{store.WithLogger(Logger())}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return root, st
}
