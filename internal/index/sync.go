package index

import (
	"log/slog"

	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/models"
)

// Change kinds reported to an EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// EventCallback is called after an index change. kind is one of KindCreated,
// KindUpdated or KindDeleted.
type EventCallback func(kind string, ref layout.MeetingRef)

// Sync walks the store catalog and brings the index up to date:
//   - new/changed meetings are decoded and upserted
//   - meetings removed from disk, or no longer decodable, are deleted from the index
func Sync(db *DB, cat Catalog, logger *slog.Logger) error {
	return reconcile(db, cat, logger, nil)
}

func reconcile(db *DB, cat Catalog, logger *slog.Logger, cb EventCallback) error {
	refs, err := cat.MeetingRefs()
	if err != nil {
		return err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	src := newSource(cat, true)
	disk := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		path := ref.Path()
		disk[path] = struct{}{}

		kind, err := refresh(db, src, ref, checksums[path])
		if err != nil {
			logger.Warn("sync: index failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if kind == "" {
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", path), slog.String("op", kind))
		if cb != nil {
			cb(kind, ref)
		}
	}

	// Remove stale entries.
	for path := range checksums {
		if _, ok := disk[path]; ok {
			continue
		}
		if err := db.DeleteMeeting(path); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("path", path))
		if ref, ok := layout.ParseMeetingPath(path); ok && cb != nil {
			cb(KindDeleted, ref)
		}
	}
	return nil
}

// refresh re-indexes one meeting against known, the checksum currently in
// the index. It returns the kind of change applied, or "" when nothing
// changed.
func refresh(db *DB, src *source, ref layout.MeetingRef, known string) (string, error) {
	m, cs, err := src.load(ref)
	if err != nil {
		return "", err
	}
	if m == nil {
		if known == "" {
			return "", nil
		}
		return KindDeleted, db.DeleteMeeting(ref.Path())
	}
	if cs == known {
		return "", nil
	}
	row, items := Rows(ref, m, cs)
	if err := db.UpsertMeeting(row, items); err != nil {
		return "", err
	}
	if known == "" {
		return KindCreated, nil
	}
	return KindUpdated, nil
}

type trackPair struct {
	project *models.Project
	track   *models.Track
}

// source loads meetings from a Catalog. With caching on, each track header
// is read once.
type source struct {
	cat    Catalog
	tracks map[string]trackPair
}

func newSource(cat Catalog, cache bool) *source {
	s := &source{cat: cat}
	if cache {
		s.tracks = make(map[string]trackPair)
	}
	return s
}

func (s *source) load(ref layout.MeetingRef) (*models.Meeting, string, error) {
	key := ref.Project + "/" + ref.Track
	pair, ok := s.tracks[key]
	if !ok {
		p, t, err := s.cat.FindTrack(ref.Project, ref.Track)
		if err != nil {
			return nil, "", err
		}
		pair = trackPair{project: p, track: t}
		if s.tracks != nil {
			s.tracks[key] = pair
		}
	}
	if pair.track == nil {
		return nil, "", nil
	}
	return s.cat.LoadMeetingChecksum(pair.project, pair.track, ref.Number)
}
