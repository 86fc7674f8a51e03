// Package meetingservice coordinates the store, the search index and change
// notifications for the REST, MCP and CLI surfaces.
package meetingservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/minutebook/internal/apperr"
	"github.com/starford/minutebook/internal/export"
	"github.com/starford/minutebook/internal/index"
	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/models"
	"github.com/starford/minutebook/internal/store"
)

// ErrIndexDisabled is returned by index-backed queries when no index is configured.
var ErrIndexDisabled = errors.New("search index is not configured")

// Publisher receives change notifications. *sse.Broker satisfies it.
type Publisher interface {
	PublishMeetingEvent(kind string, ref layout.MeetingRef)
	PublishTreeChange()
}

// MeetingSummary is a lightweight item in a meeting list.
type MeetingSummary struct {
	Number      string `json:"number"`
	Date        string `json:"date"`
	Topic       string `json:"topic"`
	FinalizedAt string `json:"finalized_at,omitempty"`
}

// MeetingDetail is a meeting with its address and document checksum.
type MeetingDetail struct {
	Project  string          `json:"project"`
	Track    string          `json:"track"`
	Checksum string          `json:"checksum"`
	Meeting  *models.Meeting `json:"meeting"`
}

// Service coordinates store, index and event operations.
type Service struct {
	store  *store.Store
	idx    index.MeetingIndex
	events Publisher
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIndex keeps idx current after every mutation and enables search.
func WithIndex(idx index.MeetingIndex) Option {
	return func(s *Service) { s.idx = idx }
}

// WithPublisher sends change notifications to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service over st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() *store.Store { return s.store }

// ListProjects returns every project with its tracks.
func (s *Service) ListProjects(_ context.Context) ([]*models.Project, error) {
	return s.store.LoadProjects()
}

// GetProject returns one project or apperr.ErrNotFound.
func (s *Service) GetProject(_ context.Context, projectSlug string) (*models.Project, error) {
	return s.project(projectSlug)
}

// CreateProject creates a project named name.
func (s *Service) CreateProject(_ context.Context, name string) (*models.Project, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	p, err := s.store.CreateProject(name)
	if err != nil {
		return nil, err
	}
	s.treeChanged()
	return p, nil
}

// RenameProject changes the display name. The slug is unchanged.
func (s *Service) RenameProject(_ context.Context, projectSlug, name string) (*models.Project, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	p, err := s.project(projectSlug)
	if err != nil {
		return nil, err
	}
	p.Name = name
	if err := s.store.SaveProject(p); err != nil {
		return nil, err
	}
	s.treeChanged()
	return p, nil
}

// DeleteProject removes a project with all tracks and meetings. The
// directory is removed even when its header no longer decodes.
func (s *Service) DeleteProject(_ context.Context, projectSlug string) error {
	if err := validateSlug("project", projectSlug); err != nil {
		return err
	}
	if !s.store.Provider().Exists(layout.ProjectDir(projectSlug)) {
		return fmt.Errorf("project %s: %w", projectSlug, apperr.ErrNotFound)
	}
	refs := s.dirRefs(projectSlug, "")
	if err := s.store.DeleteProject(projectSlug); err != nil {
		return err
	}
	s.dropAll(refs)
	s.treeChanged()
	return nil
}

// CreateTrack adds a track named name to a project.
func (s *Service) CreateTrack(_ context.Context, projectSlug, name string) (*models.Track, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	p, err := s.project(projectSlug)
	if err != nil {
		return nil, err
	}
	t, err := s.store.CreateTrack(p, name)
	if err != nil {
		return nil, err
	}
	s.treeChanged()
	return t, nil
}

// UpdateTrack applies the non-nil fields of u to a track.
func (s *Service) UpdateTrack(_ context.Context, projectSlug, trackSlug string, u TrackUpdate) (*models.Track, error) {
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return nil, err
	}
	u.apply(t)
	if err := s.store.SaveTrack(p, t); err != nil {
		return nil, err
	}
	s.treeChanged()
	return t, nil
}

// DeleteTrack removes a track with all of its meetings, whether or not the
// project and track headers decode.
func (s *Service) DeleteTrack(_ context.Context, projectSlug, trackSlug string) error {
	if err := validateSlug("project", projectSlug); err != nil {
		return err
	}
	if err := validateSlug("track", trackSlug); err != nil {
		return err
	}
	if !s.store.Provider().Exists(layout.TrackDir(projectSlug, trackSlug)) {
		return fmt.Errorf("track %s/%s: %w", projectSlug, trackSlug, apperr.ErrNotFound)
	}
	refs := s.dirRefs(projectSlug, trackSlug)
	if err := s.store.DeleteTrack(projectSlug, trackSlug); err != nil {
		return err
	}
	s.dropAll(refs)
	s.treeChanged()
	return nil
}

// ListMeetings summarises a track's meetings in number order. Meetings that
// fail to load are skipped.
func (s *Service) ListMeetings(_ context.Context, projectSlug, trackSlug string) ([]MeetingSummary, error) {
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return nil, err
	}
	nums, err := s.store.MeetingNumbers(p, t)
	if err != nil {
		return nil, err
	}
	out := make([]MeetingSummary, 0, len(nums))
	for _, n := range nums {
		m, err := s.store.LoadMeeting(p, t, n)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		out = append(out, MeetingSummary{
			Number:      n,
			Date:        m.Header.Date,
			Topic:       m.Header.Topic,
			FinalizedAt: m.FinalizedAt,
		})
	}
	return out, nil
}

// GetMeeting loads one meeting with its checksum.
func (s *Service) GetMeeting(_ context.Context, projectSlug, trackSlug, number string) (*MeetingDetail, error) {
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return nil, err
	}
	return s.detail(p, t, number)
}

// CreateMeeting creates the next meeting of a track, cloned from copyFrom or
// from the latest meeting when copyFrom is empty.
func (s *Service) CreateMeeting(_ context.Context, projectSlug, trackSlug, copyFrom string) (*MeetingDetail, error) {
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return nil, err
	}
	if copyFrom != "" {
		src, err := s.store.LoadMeeting(p, t, copyFrom)
		if err != nil {
			return nil, err
		}
		if src == nil {
			return nil, fmt.Errorf("copy from meeting %s: %w", copyFrom, apperr.ErrNotFound)
		}
	}
	m, err := s.store.CreateMeeting(p, t, copyFrom)
	if err != nil {
		return nil, err
	}
	return s.changed(index.KindCreated, p, t, m.Number)
}

// CreateNextMeeting creates the next meeting dated by the track's recurrence.
func (s *Service) CreateNextMeeting(_ context.Context, projectSlug, trackSlug string) (*MeetingDetail, error) {
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return nil, err
	}
	m, err := s.store.CreateNextMeeting(p, t)
	if err != nil {
		return nil, err
	}
	return s.changed(index.KindCreated, p, t, m.Number)
}

// UpdateMeeting replaces a meeting. When ifMatch is set it must equal the
// current document checksum.
func (s *Service) UpdateMeeting(_ context.Context, projectSlug, trackSlug, number string, m *models.Meeting, ifMatch string) (*MeetingDetail, error) {
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return nil, err
	}
	current, err := s.detail(p, t, number)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != current.Checksum {
		return nil, apperr.ErrConflict
	}
	if current.Meeting.IsFinalized() {
		return nil, apperr.ErrFinalized
	}
	if err := ValidateMeeting(m); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}

	m.Number = number
	if m.ID == "" {
		m.ID = current.Meeting.ID
	}
	// finalizing goes through FinalizeMeeting only
	m.FinalizedAt = ""
	if err := s.store.SaveMeeting(p, t, m); err != nil {
		return nil, err
	}
	return s.changed(index.KindUpdated, p, t, number)
}

// FinalizeMeeting stamps a meeting as finalized.
func (s *Service) FinalizeMeeting(_ context.Context, projectSlug, trackSlug, number string) (*MeetingDetail, error) {
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return nil, err
	}
	m, err := s.store.FinalizeMeeting(p, t, number)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("meeting %s: %w", number, apperr.ErrNotFound)
	}
	return s.changed(index.KindUpdated, p, t, number)
}

// DeleteMeeting removes a meeting directory. A meeting whose document is
// malformed is removed as well.
func (s *Service) DeleteMeeting(_ context.Context, projectSlug, trackSlug, number string) error {
	if err := validateSlug("project", projectSlug); err != nil {
		return err
	}
	if err := validateSlug("track", trackSlug); err != nil {
		return err
	}
	if !layout.IsMeetingNumber(number) {
		return fmt.Errorf("meeting number %q: %w", number, apperr.ErrInvalid)
	}
	if !s.store.Provider().Exists(layout.MeetingDir(projectSlug, trackSlug, number)) {
		return fmt.Errorf("meeting %s: %w", number, apperr.ErrNotFound)
	}
	if err := s.store.DeleteMeeting(projectSlug, trackSlug, number); err != nil {
		return err
	}
	s.dropAll([]layout.MeetingRef{{Project: projectSlug, Track: trackSlug, Number: number}})
	return nil
}

// Export renders a meeting into its exports directory and returns the
// written path and bytes.
func (s *Service) Export(_ context.Context, projectSlug, trackSlug, number, format string) (string, []byte, error) {
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return "", nil, err
	}
	d, err := s.detail(p, t, number)
	if err != nil {
		return "", nil, err
	}
	out, err := s.store.ExportMeeting(p, t, d.Meeting, format)
	if err != nil {
		return "", nil, err
	}
	data, err := s.store.Provider().Read(out)
	if err != nil {
		return "", nil, err
	}
	return out, data, nil
}

// Agenda returns the plain-text agenda of a meeting.
func (s *Service) Agenda(_ context.Context, projectSlug, trackSlug, number string) (string, error) {
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return "", err
	}
	d, err := s.detail(p, t, number)
	if err != nil {
		return "", err
	}
	return string(export.Text(p, t, d.Meeting)), nil
}

// AddAttachment stores a file in a meeting's attachments directory.
func (s *Service) AddAttachment(_ context.Context, projectSlug, trackSlug, number, name string, data []byte) (string, error) {
	p, t, err := s.track(projectSlug, trackSlug)
	if err != nil {
		return "", err
	}
	if _, err := s.detail(p, t, number); err != nil {
		return "", err
	}
	out, err := s.store.SaveAttachment(p, t, number, name, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	return out, nil
}

// Search delegates item search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.idx == nil {
		return nil, ErrIndexDisabled
	}
	return s.idx.Search(query, limit)
}

// OpenItems lists OPEN items of every track's latest meeting.
func (s *Service) OpenItems(_ context.Context, assignee string) ([]index.OpenItem, error) {
	if s.idx == nil {
		return nil, ErrIndexDisabled
	}
	return s.idx.OpenItems(assignee)
}

func (s *Service) project(projectSlug string) (*models.Project, error) {
	p, err := s.store.FindProject(projectSlug)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", projectSlug, apperr.ErrNotFound)
	}
	return p, nil
}

func (s *Service) track(projectSlug, trackSlug string) (*models.Project, *models.Track, error) {
	p, err := s.project(projectSlug)
	if err != nil {
		return nil, nil, err
	}
	t := p.Track(trackSlug)
	if t == nil {
		return nil, nil, fmt.Errorf("track %s/%s: %w", projectSlug, trackSlug, apperr.ErrNotFound)
	}
	return p, t, nil
}

func (s *Service) detail(p *models.Project, t *models.Track, number string) (*MeetingDetail, error) {
	if !layout.IsMeetingNumber(number) {
		return nil, fmt.Errorf("meeting number %q: %w", number, apperr.ErrInvalid)
	}
	m, cs, err := s.store.LoadMeetingChecksum(p, t, number)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("meeting %s: %w", number, apperr.ErrNotFound)
	}
	return &MeetingDetail{Project: p.Slug, Track: t.Slug, Checksum: cs, Meeting: m}, nil
}

// changed re-reads a meeting after a write, indexes it and announces it.
func (s *Service) changed(kind string, p *models.Project, t *models.Track, number string) (*MeetingDetail, error) {
	d, err := s.detail(p, t, number)
	if err != nil {
		return nil, err
	}
	ref := layout.MeetingRef{Project: p.Slug, Track: t.Slug, Number: number}
	if s.idx != nil {
		row, items := index.Rows(ref, d.Meeting, d.Checksum)
		if err := s.idx.UpsertMeeting(row, items); err != nil {
			s.logger.Warn("index upsert failed", slog.String("path", ref.Path()), slog.String("error", err.Error()))
		}
	}
	if s.events != nil {
		s.events.PublishMeetingEvent(kind, ref)
	}
	return d, nil
}

// dirRefs collects the meetings below a project or track for index cleanup.
// Failures are logged and yield no refs.
func (s *Service) dirRefs(projectSlug, trackSlug string) []layout.MeetingRef {
	refs, err := s.store.MeetingDirRefs(projectSlug, trackSlug)
	if err != nil {
		s.logger.Warn("list meetings failed", slog.String("project", projectSlug),
			slog.String("track", trackSlug), slog.String("error", err.Error()))
		return nil
	}
	return refs
}

func (s *Service) dropAll(refs []layout.MeetingRef) {
	for _, ref := range refs {
		if s.idx != nil {
			if err := s.idx.DeleteMeeting(ref.Path()); err != nil {
				s.logger.Warn("index delete failed", slog.String("path", ref.Path()), slog.String("error", err.Error()))
			}
		}
		if s.events != nil {
			s.events.PublishMeetingEvent(index.KindDeleted, ref)
		}
	}
}

func (s *Service) treeChanged() {
	if s.events != nil {
		s.events.PublishTreeChange()
	}
}
