package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/minutebook/internal/layout"
)

// NewLogger returns a JSON logger writing to console and, when root is set,
// appending to <root>/logs/app.log. The returned closer releases the log file.
func NewLogger(level slog.Level, root string, console io.Writer) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: level}
	if root == "" {
		return slog.New(slog.NewJSONHandler(console, opts)), io.NopCloser(nil), nil
	}

	logFile := filepath.Join(root, filepath.FromSlash(layout.LogPath()))
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(io.MultiWriter(console, f), opts)), f, nil
}
