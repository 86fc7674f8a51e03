// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/starford/minutebook/internal/api"
	"github.com/starford/minutebook/internal/index"
	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/meetingservice"
	"github.com/starford/minutebook/internal/sse"
	"github.com/starford/minutebook/internal/storage"
)

// Run starts the HTTP server with the given options and blocks until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{console: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger, logFile, err := NewLogger(cfg.App.LogLevel, cfg.Data.Root, app.console)
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_root", cfg.Data.Root),
		slog.String("backend", cfg.Data.Backend),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := Open(cfg, logger, meetingservice.WithPublisher(broker))
	if err != nil {
		return err
	}
	defer rt.Close()

	if app.seed {
		created, err := rt.Store.SeedDemo()
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		if created {
			logger.Info("Demo project created")
			if rt.Index != nil {
				if err := index.Sync(rt.Index, rt.Store, logger); err != nil {
					logger.Warn("sync after seed failed", slog.String("error", err.Error()))
				}
			}
		}
	}

	apiRouter := api.NewRouter(rt.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if rt.Index != nil {
		// External edits only reach the index through the watcher on the fs backend.
		if fs, ok := rt.Provider.(*storage.FS); ok {
			g.Go(func() error {
				err := index.Watch(gCtx, rt.Index, rt.Store, fs.Root(), logger, func(kind string, ref layout.MeetingRef) {
					broker.PublishMeetingEvent(kind, ref)
				})
				if err != nil {
					logger.Error("watcher stopped", slog.String("error", err.Error()))
				}
				return nil
			})
		}

		if sched := cfg.Index.ResyncSchedule; sched != "" {
			c := cron.New()
			if _, err := c.AddFunc(sched, func() {
				if err := index.Sync(rt.Index, rt.Store, logger); err != nil {
					logger.Warn("scheduled resync failed", slog.String("error", err.Error()))
					return
				}
				broker.PublishTreeChange()
			}); err != nil {
				return fmt.Errorf("schedule resync: %w", err)
			}
			c.Start()
			g.Go(func() error {
				<-gCtx.Done()
				<-c.Stop().Done()
				return nil
			})
		}
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group context so the watcher and cron stop with
// the HTTP server.
var errShutdown = errors.New("shutdown")
