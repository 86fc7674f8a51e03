package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the data root and keeps the index in
// step with meeting.xml changes until ctx is cancelled. It calls cb (if
// non-nil) after each index mutation.
//
// New directories created at runtime are added to the watch list. Removals
// and renames of anything other than a meeting document (a whole meeting,
// track or project directory) trigger a debounced reconciliation pass.
// Temporary files of atomic writes are ignored.
func Watch(ctx context.Context, db *DB, cat Catalog, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// reconcileTimer debounces reconciliation after bulk removals.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := reconcile(db, cat, logger, cb); err != nil {
				logger.Warn("reconcile: failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if strings.HasPrefix(filepath.Base(ev.Name), storage.TempPrefix) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					indexNewDir(db, cat, root, ev.Name, logger, cb)
					continue
				}
			}

			ref, isMeeting := meetingRef(root, ev.Name)
			if !isMeeting {
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					scheduleReconcile()
				}
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				handleChange(db, cat, ref, logger, cb)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if delErr := db.DeleteMeeting(ref.Path()); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", ref.Path()), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", ref.Path()))
				if cb != nil {
					cb(KindDeleted, ref)
				}
				if ev.Op&fsnotify.Rename != 0 {
					scheduleReconcile()
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func handleChange(db *DB, cat Catalog, ref layout.MeetingRef, logger *slog.Logger, cb EventCallback) {
	known, err := db.GetChecksum(ref.Path())
	if err != nil {
		logger.Warn("watcher: checksum lookup failed", slog.String("path", ref.Path()), slog.String("error", err.Error()))
		return
	}
	kind, err := refresh(db, newSource(cat, false), ref, known)
	if err != nil {
		logger.Warn("watcher: index failed", slog.String("path", ref.Path()), slog.String("error", err.Error()))
		return
	}
	if kind == "" {
		return
	}
	logger.Debug("watcher: indexed", slog.String("path", ref.Path()), slog.String("op", kind))
	if cb != nil {
		cb(kind, ref)
	}
}

// meetingRef maps an absolute event path to a meeting reference.
func meetingRef(root, abs string) (layout.MeetingRef, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return layout.MeetingRef{}, false
	}
	return layout.ParseMeetingPath(filepath.ToSlash(rel))
}

// indexNewDir indexes any meeting documents found in a newly created directory.
func indexNewDir(db *DB, cat Catalog, root, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != layout.MeetingFile {
			return nil
		}
		if ref, ok := meetingRef(root, path); ok {
			handleChange(db, cat, ref, logger, cb)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
