package store

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/minutebook/internal/export"
	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/models"
)

// MeetingRefs enumerates every meeting directory of every loadable track.
func (s *Store) MeetingRefs() ([]layout.MeetingRef, error) {
	projects, err := s.LoadProjects()
	if err != nil {
		return nil, err
	}
	refs := []layout.MeetingRef{}
	for _, p := range projects {
		for _, t := range p.Tracks {
			nums, err := s.MeetingNumbers(p, t)
			if err != nil {
				return nil, err
			}
			for _, n := range nums {
				refs = append(refs, layout.MeetingRef{Project: p.Slug, Track: t.Slug, Number: n})
			}
		}
	}
	return refs, nil
}

// MeetingDirRefs lists the meeting directories below a project, or below a
// single track when trackSlug is set. Headers are not decoded, so projects
// and tracks with corrupt XML are enumerated too.
func (s *Store) MeetingDirRefs(projectSlug, trackSlug string) ([]layout.MeetingRef, error) {
	if err := checkSegment("project slug", projectSlug); err != nil {
		return nil, err
	}
	tracks := []string{trackSlug}
	if trackSlug == "" {
		var err error
		if tracks, err = s.fs.ListDirs(layout.TracksRoot(projectSlug)); err != nil {
			return nil, fmt.Errorf("store: list tracks of %s: %w", projectSlug, err)
		}
	}
	refs := []layout.MeetingRef{}
	for _, ts := range tracks {
		nums, err := s.MeetingNumbers(&models.Project{Slug: projectSlug}, &models.Track{Slug: ts})
		if err != nil {
			return nil, err
		}
		for _, n := range nums {
			refs = append(refs, layout.MeetingRef{Project: projectSlug, Track: ts, Number: n})
		}
	}
	return refs, nil
}

// ExportMeeting renders m in format and writes it to the meeting's exports
// directory. It returns the data-root relative path of the written file.
func (s *Store) ExportMeeting(p *models.Project, t *models.Track, m *models.Meeting, format string) (string, error) {
	if err := checkRefs(p, t); err != nil {
		return "", err
	}
	if err := checkNumber(m.Number); err != nil {
		return "", err
	}
	data, err := export.Render(format, p, t, m, s.now())
	if err != nil {
		return "", err
	}
	if _, err := s.dirs.EnsureMeetingDir(p.Slug, t.Slug, m.Number); err != nil {
		return "", fmt.Errorf("store: meeting dir: %w", err)
	}
	out := path.Join(layout.ExportsPath(p.Slug, t.Slug, m.Number), export.FileName(m, format))
	if err := s.fs.Write(out, data); err != nil {
		return "", fmt.Errorf("store: export %s: %w", out, err)
	}
	s.logger.Info("meeting exported", slog.String("path", out))
	return out, nil
}

// SaveAttachment stores a file in the meeting's attachments directory and
// returns its relative path. Only the base name of name is used.
func (s *Store) SaveAttachment(p *models.Project, t *models.Track, number, name string, data []byte) (string, error) {
	if err := checkRefs(p, t); err != nil {
		return "", err
	}
	if err := checkNumber(number); err != nil {
		return "", err
	}
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if err := checkSegment("attachment name", base); err != nil {
		return "", err
	}
	if _, err := s.dirs.EnsureMeetingDir(p.Slug, t.Slug, number); err != nil {
		return "", fmt.Errorf("store: meeting dir: %w", err)
	}
	out := path.Join(layout.AttachmentsPath(p.Slug, t.Slug, number), base)
	if err := s.fs.Write(out, data); err != nil {
		return "", fmt.Errorf("store: save attachment: %w", err)
	}
	return out, nil
}
