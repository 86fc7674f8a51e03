// Package storage defines the repository abstraction the store reads and
// writes through. Paths are slash-separated and relative to the data root.
package storage

import "errors"

// ErrNotExist is returned by Read for a path that does not hold a file.
var ErrNotExist = errors.New("storage: not exist")

// Provider is the interface for data-root operations. Existence of projects,
// tracks and meetings is inferred from ListDirs, so an implementation only
// needs to model a tree of directories and files.
type Provider interface {
	// ListDirs returns the names of the immediate subdirectories of dir,
	// sorted. A missing dir yields an empty list and no error.
	ListDirs(dir string) ([]string, error)
	// Exists reports whether path names a file or directory.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path, creating parent directories.
	Write(path string, content []byte) error
	// MkdirAll creates dir and its parents; existing directories are not an error.
	MkdirAll(dir string) error
	// RemoveAll deletes path and everything below it; a missing path is not an error.
	RemoveAll(path string) error
}
