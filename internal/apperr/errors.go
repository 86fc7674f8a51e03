// Package apperr holds the sentinel errors shared by the store and its surfaces.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid input")
	ErrFinalized     = errors.New("meeting is finalized")

	// ErrUnsupportedFormat rejects an export format nobody implements.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrExportUnavailable marks a known format whose renderer is not built in.
	ErrExportUnavailable = errors.New("export unavailable")
)
