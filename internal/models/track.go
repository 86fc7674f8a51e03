package models

// Recurrence modes.
const (
	RecurrenceWeekly   = "weekly"
	RecurrenceBiweekly = "biweekly"
	RecurrenceMonthly  = "monthly"
)

// Track is a recurring meeting series within a project. Slug is fixed at
// creation and is the on-disk identity; Name may change freely.
type Track struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Slug               string   `json:"slug"`
	DefaultsLocation   string   `json:"defaults_location"`
	DefaultsTeamsLink  string   `json:"defaults_teams_link"`
	Roster             []string `json:"roster"`
	SectionTemplates   []string `json:"section_templates"`
	RecurrenceMode     string   `json:"recurrence_mode"`
	RecurrenceInterval int      `json:"recurrence_interval"`
}

// NewTrack returns a track with the default weekly recurrence.
func NewTrack(id, name, slug string) *Track {
	return &Track{
		ID:                 id,
		Name:               name,
		Slug:               slug,
		Roster:             []string{},
		SectionTemplates:   []string{},
		RecurrenceMode:     RecurrenceWeekly,
		RecurrenceInterval: 1,
	}
}

// Project groups tracks. Slug follows the same stability rule as Track.Slug.
type Project struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Slug   string   `json:"slug"`
	Tracks []*Track `json:"tracks"`
}

// Track returns the project's track with the given slug, or nil.
func (p *Project) Track(slug string) *Track {
	for _, t := range p.Tracks {
		if t.Slug == slug {
			return t
		}
	}
	return nil
}
