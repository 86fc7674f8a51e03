package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/minutebook/internal/index"
	"github.com/starford/minutebook/internal/meetingservice"
	"github.com/starford/minutebook/internal/storage"
	"github.com/starford/minutebook/internal/store"
)

// Runtime holds the components shared by the server and the CLI commands.
type Runtime struct {
	Config   *Config
	Logger   *slog.Logger
	Provider storage.Provider
	Store    *store.Store
	Index    *index.DB // nil when indexing is disabled
	Service  *meetingservice.Service

	closers []io.Closer
}

// Open builds the storage backend, store, index and service from cfg.
// The index is synced before Open returns.
func Open(cfg *Config, logger *slog.Logger, svcOpts ...meetingservice.Option) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: logger}

	if err := os.MkdirAll(cfg.Data.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create data root: %w", err)
	}

	switch cfg.Data.Backend {
	case BackendSQLite:
		db, err := storage.OpenSQLite(cfg.Data.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		rt.closers = append(rt.closers, db)
		rt.Provider = db
	default:
		fs, err := storage.NewFS(cfg.Data.Root)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		rt.Provider = fs
	}

	st, err := store.New(rt.Provider, store.WithLogger(logger))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt.Store = st

	opts := []meetingservice.Option{meetingservice.WithLogger(logger)}
	if cfg.Index.Enabled() {
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("init index: %w", err)
		}
		rt.closers = append(rt.closers, db)
		rt.Index = db
		if err := index.Sync(db, st, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		opts = append(opts, meetingservice.WithIndex(db))
	}
	rt.Service = meetingservice.New(st, append(opts, svcOpts...)...)
	return rt, nil
}

// Close releases the index and storage connections.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i].Close())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
