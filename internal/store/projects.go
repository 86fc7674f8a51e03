package store

import (
	"fmt"
	"log/slog"

	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/models"
	"github.com/starford/minutebook/internal/slug"
	"github.com/starford/minutebook/internal/xmlcodec"
)

// CreateProject derives a slug from name and persists a new project header.
// When the slug is taken by another project a numeric suffix is appended.
func (s *Store) CreateProject(name string) (*models.Project, error) {
	p := &models.Project{
		ID:     s.newID(),
		Name:   name,
		Slug:   s.uniqueSlug(layout.ProjectsDir, slug.Make(name)),
		Tracks: []*models.Track{},
	}
	if err := s.SaveProject(p); err != nil {
		return nil, err
	}
	s.logger.Info("project created", slog.String("project", p.Slug))
	return p, nil
}

// SaveProject writes project.xml under the project's slug. Renaming a project
// is a SaveProject with a new Name; the slug, and so the path, never changes.
func (s *Store) SaveProject(p *models.Project) error {
	if err := checkSegment("project slug", p.Slug); err != nil {
		return err
	}
	data, err := xmlcodec.EncodeProject(p)
	if err != nil {
		return err
	}
	if err := s.fs.Write(layout.ProjectXML(p.Slug), data); err != nil {
		return fmt.Errorf("store: save project %s: %w", p.Slug, err)
	}
	return nil
}

// DeleteProject removes the project directory and everything below it.
// A missing project is not an error.
func (s *Store) DeleteProject(projectSlug string) error {
	if err := checkSegment("project slug", projectSlug); err != nil {
		return err
	}
	return s.removeTree(layout.ProjectDir(projectSlug))
}

// CreateTrack persists a new track under p and appends it to p.Tracks.
func (s *Store) CreateTrack(p *models.Project, name string) (*models.Track, error) {
	if err := checkSegment("project slug", p.Slug); err != nil {
		return nil, err
	}
	t := models.NewTrack(s.newID(), name, s.uniqueSlug(layout.TracksRoot(p.Slug), slug.Make(name)))
	if err := s.SaveTrack(p, t); err != nil {
		return nil, err
	}
	p.Tracks = append(p.Tracks, t)
	s.logger.Info("track created", slog.String("project", p.Slug), slog.String("track", t.Slug))
	return t, nil
}

// SaveTrack writes track.xml. Like projects, the slug is immutable.
func (s *Store) SaveTrack(p *models.Project, t *models.Track) error {
	if err := checkSegment("project slug", p.Slug); err != nil {
		return err
	}
	if err := checkSegment("track slug", t.Slug); err != nil {
		return err
	}
	data, err := xmlcodec.EncodeTrack(t)
	if err != nil {
		return err
	}
	if err := s.fs.Write(layout.TrackXML(p.Slug, t.Slug), data); err != nil {
		return fmt.Errorf("store: save track %s/%s: %w", p.Slug, t.Slug, err)
	}
	return nil
}

// DeleteTrack removes the track directory with all of its meetings.
// A missing track is not an error.
func (s *Store) DeleteTrack(projectSlug, trackSlug string) error {
	if err := checkSegment("project slug", projectSlug); err != nil {
		return err
	}
	if err := checkSegment("track slug", trackSlug); err != nil {
		return err
	}
	return s.removeTree(layout.TrackDir(projectSlug, trackSlug))
}

func (s *Store) removeTree(dir string) error {
	if !s.fs.Exists(dir) {
		return nil
	}
	if err := s.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("store: delete %s: %w", dir, err)
	}
	s.logger.Info("deleted", slog.String("path", dir))
	return nil
}

// LoadProjects scans the data root and rebuilds every project with its
// tracks. Directories without a header file are skipped, malformed headers
// are logged and skipped. Meetings are not loaded.
func (s *Store) LoadProjects() ([]*models.Project, error) {
	slugs, err := s.fs.ListDirs(layout.ProjectsDir)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	out := []*models.Project{}
	for _, ps := range slugs {
		p, err := s.loadProject(ps)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindProject loads a single project and its tracks, or returns nil.
func (s *Store) FindProject(projectSlug string) (*models.Project, error) {
	if err := checkSegment("project slug", projectSlug); err != nil {
		return nil, err
	}
	return s.loadProject(projectSlug)
}

// FindTrack loads a project and returns it with the named track. Either
// result is nil when absent.
func (s *Store) FindTrack(projectSlug, trackSlug string) (*models.Project, *models.Track, error) {
	p, err := s.FindProject(projectSlug)
	if err != nil || p == nil {
		return nil, nil, err
	}
	return p, p.Track(trackSlug), nil
}

func (s *Store) loadProject(projectSlug string) (*models.Project, error) {
	xmlPath := layout.ProjectXML(projectSlug)
	data, ok := s.readDoc("load projects", xmlPath)
	if !ok {
		return nil, nil
	}
	p, err := xmlcodec.DecodeProject(data, projectSlug, s.codecOptions())
	if err != nil {
		s.logMalformed("load projects", xmlPath, err)
		return nil, nil
	}

	trackSlugs, err := s.fs.ListDirs(layout.TracksRoot(projectSlug))
	if err != nil {
		return nil, fmt.Errorf("store: list tracks of %s: %w", projectSlug, err)
	}
	for _, ts := range trackSlugs {
		if t := s.loadTrack(projectSlug, ts); t != nil {
			p.Tracks = append(p.Tracks, t)
		}
	}
	return p, nil
}

func (s *Store) loadTrack(projectSlug, trackSlug string) *models.Track {
	xmlPath := layout.TrackXML(projectSlug, trackSlug)
	data, ok := s.readDoc("load projects", xmlPath)
	if !ok {
		return nil
	}
	t, err := xmlcodec.DecodeTrack(data, trackSlug, s.codecOptions())
	if err != nil {
		s.logMalformed("load projects", xmlPath, err)
		return nil
	}
	return t
}
