// Package store is the single entry point for reading and writing projects,
// tracks and meetings. It resolves paths through the layout package, encodes
// documents with xmlcodec and performs all I/O through a storage.Provider.
//
// The store is synchronous and keeps no locks: it assumes one local writer.
// Every document write is a complete atomic replacement, so a reader never
// sees a partial file. Missing or malformed documents are reported as absent
// (nil results) and logged, never returned as errors.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/slug"
	"github.com/starford/minutebook/internal/storage"
	"github.com/starford/minutebook/internal/xmlcodec"
)

// Store orchestrates the lifecycle of projects, tracks and meetings.
type Store struct {
	fs     storage.Provider
	dirs   *layout.Resolver
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger that receives decode and load failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source used for dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the identifier generator.
func WithIDs(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates a Store over fs and makes sure the Projects/ and logs/
// directories exist.
func New(fs storage.Provider, opts ...Option) (*Store, error) {
	s := &Store{
		fs:     fs,
		dirs:   layout.NewResolver(fs),
		logger: slog.Default(),
		now:    time.Now,
		newID:  slug.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.dirs.EnsureRoot(); err != nil {
		return nil, fmt.Errorf("store: init root: %w", err)
	}
	return s, nil
}

// Provider returns the underlying storage provider.
func (s *Store) Provider() storage.Provider { return s.fs }

func (s *Store) codecOptions() xmlcodec.Options {
	return xmlcodec.Options{Now: s.now, NewID: s.newID}
}

func (s *Store) today() string {
	return s.now().Format("2006-01-02")
}

// readDoc returns the file at p. A missing file yields (nil, false). Any
// other read failure is logged and also reported as absent.
func (s *Store) readDoc(op, p string) ([]byte, bool) {
	data, err := s.fs.Read(p)
	if err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			s.logger.Warn(op+": read failed", slog.String("path", p), slog.String("error", err.Error()))
		}
		return nil, false
	}
	return data, true
}

func (s *Store) logMalformed(op, p string, err error) {
	s.logger.Error(op+": malformed xml", slog.String("path", p), slog.String("error", err.Error()))
}

// uniqueSlug returns base, or base-2, base-3, ... when a sibling directory
// under parent already uses the name.
func (s *Store) uniqueSlug(parent, base string) string {
	candidate := base
	for n := 2; s.fs.Exists(path.Join(parent, candidate)); n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return candidate
}

// checkSegment rejects identifiers that would not address a single directory
// below their parent.
func checkSegment(kind, v string) error {
	if v == "" || v == "." || v == ".." || strings.ContainsAny(v, `/\`) {
		return fmt.Errorf("store: invalid %s %q", kind, v)
	}
	return nil
}
