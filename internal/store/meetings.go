package store

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/starford/minutebook/internal/apperr"
	"github.com/starford/minutebook/internal/checksum"
	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/models"
	"github.com/starford/minutebook/internal/xmlcodec"
)

// MeetingNumbers lists the track's meeting directory names in numeric order.
// Non-numeric directories and numbers too large for an int are ignored.
func (s *Store) MeetingNumbers(p *models.Project, t *models.Track) ([]string, error) {
	if err := checkRefs(p, t); err != nil {
		return nil, err
	}
	dirs, err := s.fs.ListDirs(layout.MeetingsRoot(p.Slug, t.Slug))
	if err != nil {
		return nil, fmt.Errorf("store: list meetings: %w", err)
	}
	out := []string{}
	for _, d := range dirs {
		if !layout.IsMeetingNumber(d) {
			continue
		}
		if _, err := strconv.Atoi(d); err != nil {
			s.logger.Warn("skipping meeting directory", slog.String("name", d), slog.String("error", err.Error()))
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return meetingNum(out[i]) < meetingNum(out[j]) })
	return out, nil
}

func meetingNum(name string) int {
	n, _ := strconv.Atoi(name)
	return n
}

// LatestMeetingNumber returns the numerically largest meeting directory, or
// ok=false when the track has no meetings.
func (s *Store) LatestMeetingNumber(p *models.Project, t *models.Track) (number string, ok bool, err error) {
	nums, err := s.MeetingNumbers(p, t)
	if err != nil || len(nums) == 0 {
		return "", false, err
	}
	return nums[len(nums)-1], true, nil
}

// NextMeetingNumber returns the largest existing number plus one, zero padded
// to four digits. Gaps left by deleted meetings are never reused.
func (s *Store) NextMeetingNumber(p *models.Project, t *models.Track) (string, error) {
	latest, ok, err := s.LatestMeetingNumber(p, t)
	if err != nil {
		return "", err
	}
	n := 0
	if ok {
		n = meetingNum(latest)
	}
	return fmt.Sprintf("%04d", n+1), nil
}

// CreateMeeting allocates the next number and persists a new meeting whose
// header comes from the track defaults and today's date. The source meeting
// is copyFrom, or the latest meeting when copyFrom is empty. Its sections are
// cloned and its OPEN and INFO items carried forward with fresh identities and
// no notes; CLOSED items stay behind. Without a source meeting the track's
// section templates seed the agenda.
func (s *Store) CreateMeeting(p *models.Project, t *models.Track, copyFrom string) (*models.Meeting, error) {
	m, _, err := s.newMeeting(p, t, copyFrom)
	if err != nil {
		return nil, err
	}
	if err := s.writeMeeting(p, t, m); err != nil {
		return nil, err
	}
	s.logger.Info("meeting created",
		slog.String("project", p.Slug), slog.String("track", t.Slug), slog.String("number", m.Number))
	return m, nil
}

// CreateNextMeeting creates a meeting from the latest one and dates it one
// recurrence step after the latest meeting's date (or after today when there
// is no usable previous date).
func (s *Store) CreateNextMeeting(p *models.Project, t *models.Track) (*models.Meeting, error) {
	m, prev, err := s.newMeeting(p, t, "")
	if err != nil {
		return nil, err
	}
	var (
		base time.Time
		ok   bool
	)
	if prev != nil {
		base, ok = models.ParseDate(prev.Header.Date)
	}
	if !ok {
		base, _ = models.ParseDate(s.today())
	}
	m.Header.Date = t.NextDate(base).Format(models.DateLayout)

	if err := s.writeMeeting(p, t, m); err != nil {
		return nil, err
	}
	s.logger.Info("next meeting created",
		slog.String("project", p.Slug), slog.String("track", t.Slug),
		slog.String("number", m.Number), slog.String("date", m.Header.Date))
	return m, nil
}

func (s *Store) newMeeting(p *models.Project, t *models.Track, copyFrom string) (*models.Meeting, *models.Meeting, error) {
	number, err := s.NextMeetingNumber(p, t)
	if err != nil {
		return nil, nil, err
	}
	if copyFrom == "" {
		if copyFrom, _, err = s.LatestMeetingNumber(p, t); err != nil {
			return nil, nil, err
		}
	}

	m := &models.Meeting{
		ID:     s.newID(),
		Number: number,
		Header: models.MeetingHeader{
			Topic:     t.Name,
			Date:      s.today(),
			Start:     models.DefaultStart,
			End:       models.DefaultEnd,
			Location:  t.DefaultsLocation,
			TeamsLink: t.DefaultsTeamsLink,
		},
		Sections: []models.Section{},
		Items:    []models.Item{},
	}

	var prev *models.Meeting
	if copyFrom != "" {
		if prev, err = s.LoadMeeting(p, t, copyFrom); err != nil {
			return nil, nil, err
		}
	}
	if prev == nil {
		for i, name := range t.SectionTemplates {
			m.Sections = append(m.Sections, models.Section{ID: s.newID(), Name: name, Order: i})
		}
		return m, nil, nil
	}

	for _, sec := range prev.Sections {
		m.Sections = append(m.Sections, models.Section{ID: s.newID(), Name: sec.Name, Order: sec.Order})
	}
	for _, it := range prev.Items {
		if !it.Carried() {
			continue
		}
		m.Items = append(m.Items, models.Item{
			ID:          s.newID(),
			Description: it.Description,
			Status:      it.Status,
			AssigneeID:  it.AssigneeID,
			Priority:    it.Priority,
			DueDate:     it.DueDate,
			Tags:        append([]string{}, it.Tags...),
			Order:       it.Order,
			SectionName: it.SectionName,
			Notes:       []models.Note{},
		})
	}
	return m, prev, nil
}

// FinalizeMeeting stamps FinalizedAt with the current local time at second
// precision. A missing meeting is a no-op returning nil. Finalizing twice
// keeps the first stamp.
func (s *Store) FinalizeMeeting(p *models.Project, t *models.Track, number string) (*models.Meeting, error) {
	m, err := s.LoadMeeting(p, t, number)
	if err != nil || m == nil {
		return nil, err
	}
	if m.IsFinalized() {
		return m, nil
	}
	m.FinalizedAt = s.now().Format(xmlcodec.TimestampLayout)
	if err := s.writeMeeting(p, t, m); err != nil {
		return nil, err
	}
	s.logger.Info("meeting finalized",
		slog.String("project", p.Slug), slog.String("track", t.Slug), slog.String("number", number))
	return m, nil
}

// DeleteMeeting removes the meeting directory including attachments and
// exports. A missing meeting is not an error.
func (s *Store) DeleteMeeting(projectSlug, trackSlug, number string) error {
	if err := checkSegment("project slug", projectSlug); err != nil {
		return err
	}
	if err := checkSegment("track slug", trackSlug); err != nil {
		return err
	}
	if err := checkNumber(number); err != nil {
		return err
	}
	return s.removeTree(layout.MeetingDir(projectSlug, trackSlug, number))
}

// LoadMeeting decodes the meeting with the given number. A missing or
// malformed document yields (nil, nil); the latter is logged.
func (s *Store) LoadMeeting(p *models.Project, t *models.Track, number string) (*models.Meeting, error) {
	m, _, err := s.LoadMeetingChecksum(p, t, number)
	return m, err
}

// LoadMeetingChecksum is LoadMeeting that also returns the SHA-256 of the
// document bytes.
func (s *Store) LoadMeetingChecksum(p *models.Project, t *models.Track, number string) (*models.Meeting, string, error) {
	if err := checkRefs(p, t); err != nil {
		return nil, "", err
	}
	if err := checkNumber(number); err != nil {
		return nil, "", err
	}
	xmlPath := layout.MeetingXML(p.Slug, t.Slug, number)
	data, ok := s.readDoc("load meeting", xmlPath)
	if !ok {
		return nil, "", nil
	}
	m, err := xmlcodec.DecodeMeeting(data, t, s.codecOptions())
	if err != nil {
		s.logMalformed("load meeting", xmlPath, err)
		return nil, "", nil
	}
	return m, checksum.Sum(data), nil
}

// SaveMeeting encodes m and atomically replaces its document. Writing over a
// finalized meeting is rejected with apperr.ErrFinalized.
func (s *Store) SaveMeeting(p *models.Project, t *models.Track, m *models.Meeting) error {
	if err := checkRefs(p, t); err != nil {
		return err
	}
	if err := checkNumber(m.Number); err != nil {
		return err
	}
	existing, err := s.LoadMeeting(p, t, m.Number)
	if err != nil {
		return err
	}
	if existing != nil && existing.IsFinalized() {
		return fmt.Errorf("store: save meeting %s: %w", m.Number, apperr.ErrFinalized)
	}
	return s.writeMeeting(p, t, m)
}

func (s *Store) writeMeeting(p *models.Project, t *models.Track, m *models.Meeting) error {
	xmlPath, err := s.dirs.EnsureMeetingDir(p.Slug, t.Slug, m.Number)
	if err != nil {
		return fmt.Errorf("store: meeting dir: %w", err)
	}
	data, err := xmlcodec.EncodeMeeting(m)
	if err != nil {
		return err
	}
	if err := s.fs.Write(xmlPath, data); err != nil {
		return fmt.Errorf("store: save meeting %s: %w", m.Number, err)
	}
	return nil
}

func checkRefs(p *models.Project, t *models.Track) error {
	if p == nil || t == nil {
		return fmt.Errorf("store: project and track are required")
	}
	if err := checkSegment("project slug", p.Slug); err != nil {
		return err
	}
	return checkSegment("track slug", t.Slug)
}

func checkNumber(number string) error {
	if !layout.IsMeetingNumber(number) {
		return fmt.Errorf("store: invalid meeting number %q", number)
	}
	return nil
}
