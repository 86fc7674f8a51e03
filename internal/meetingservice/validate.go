package meetingservice

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/minutebook/internal/apperr"
	"github.com/starford/minutebook/internal/models"
)

const maxNameLength = 200

func validateName(name string) error {
	err := validation.Validate(strings.TrimSpace(name), validation.Required, validation.RuneLength(1, maxNameLength))
	if err != nil {
		return fmt.Errorf("%w: name %v", apperr.ErrInvalid, err)
	}
	return nil
}

// validateSlug rejects identifiers that do not name a single directory.
func validateSlug(kind, v string) error {
	if v == "" || v == "." || v == ".." || strings.ContainsAny(v, `/\`) {
		return fmt.Errorf("%s %q: %w", kind, v, apperr.ErrInvalid)
	}
	return nil
}

// TrackUpdate carries a partial track edit. Nil fields are left unchanged.
type TrackUpdate struct {
	Name               *string  `json:"name,omitempty"`
	DefaultsLocation   *string  `json:"defaults_location,omitempty"`
	DefaultsTeamsLink  *string  `json:"defaults_teams_link,omitempty"`
	Roster             []string `json:"roster,omitempty"`
	SectionTemplates   []string `json:"section_templates,omitempty"`
	RecurrenceMode     *string  `json:"recurrence_mode,omitempty"`
	RecurrenceInterval *int     `json:"recurrence_interval,omitempty"`
}

// Validate checks the fields that are set.
func (u *TrackUpdate) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Name, validation.NilOrNotEmpty, validation.RuneLength(1, maxNameLength)),
		validation.Field(&u.RecurrenceMode, validation.NilOrNotEmpty,
			validation.In(models.RecurrenceWeekly, models.RecurrenceBiweekly, models.RecurrenceMonthly)),
		validation.Field(&u.RecurrenceInterval, validation.Min(1)),
		validation.Field(&u.SectionTemplates, validation.Each(validation.Required)),
	)
}

func (u *TrackUpdate) apply(t *models.Track) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.DefaultsLocation != nil {
		t.DefaultsLocation = *u.DefaultsLocation
	}
	if u.DefaultsTeamsLink != nil {
		t.DefaultsTeamsLink = *u.DefaultsTeamsLink
	}
	if u.Roster != nil {
		t.Roster = u.Roster
	}
	if u.SectionTemplates != nil {
		t.SectionTemplates = u.SectionTemplates
	}
	if u.RecurrenceMode != nil {
		t.RecurrenceMode = *u.RecurrenceMode
	}
	if u.RecurrenceInterval != nil {
		t.RecurrenceInterval = *u.RecurrenceInterval
	}
}

// ValidateMeeting checks header formats, item enumerations and that every
// item joins an existing section.
func ValidateMeeting(m *models.Meeting) error {
	if m == nil {
		return fmt.Errorf("meeting is required")
	}
	h := &m.Header
	if err := validation.ValidateStruct(h,
		validation.Field(&h.Date, validation.Required, validation.Date(models.DateLayout)),
		validation.Field(&h.Start, validation.Required, validation.Date("15:04")),
		validation.Field(&h.End, validation.Required, validation.Date("15:04")),
	); err != nil {
		return fmt.Errorf("header: %w", err)
	}

	sections := make(map[string]struct{}, len(m.Sections))
	for _, sec := range m.Sections {
		if _, dup := sections[sec.Name]; dup {
			return fmt.Errorf("duplicate section %q", sec.Name)
		}
		sections[sec.Name] = struct{}{}
	}
	for i := range m.Items {
		it := &m.Items[i]
		if err := validation.ValidateStruct(it,
			validation.Field(&it.Status, validation.Required,
				validation.In(models.StatusOpen, models.StatusInfo, models.StatusClosed)),
			validation.Field(&it.Priority, validation.Required,
				validation.In(models.PriorityLow, models.PriorityNormal, models.PriorityHigh)),
			validation.Field(&it.DueDate, validation.Date(models.DateLayout)),
		); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if _, ok := sections[it.SectionName]; !ok {
			return fmt.Errorf("item %d: unknown section %q", i, it.SectionName)
		}
	}
	return nil
}
