package store

import "github.com/starford/minutebook/internal/models"

// SeedDemo creates a demo project with one track and a first meeting when
// the data root holds no projects. It reports whether anything was created.
func (s *Store) SeedDemo() (bool, error) {
	existing, err := s.LoadProjects()
	if err != nil || len(existing) > 0 {
		return false, err
	}

	p, err := s.CreateProject("Demo Project")
	if err != nil {
		return false, err
	}
	t, err := s.CreateTrack(p, "General Meetings")
	if err != nil {
		return false, err
	}
	t.DefaultsLocation = "Boardroom"
	t.DefaultsTeamsLink = "https://teams.microsoft.com/"
	if err := s.SaveTrack(p, t); err != nil {
		return false, err
	}

	m, err := s.CreateMeeting(p, t, "")
	if err != nil {
		return false, err
	}
	m.Sections = []models.Section{
		{ID: s.newID(), Name: "General", Order: 0},
		{ID: s.newID(), Name: "Schedule", Order: 1},
	}
	m.Items = []models.Item{
		{ID: s.newID(), Description: "Welcome & introductions", Status: models.StatusInfo,
			Priority: models.PriorityNormal, Tags: []string{}, Order: 0, SectionName: "General", Notes: []models.Note{}},
		{ID: s.newID(), Description: "Review milestones", Status: models.StatusOpen,
			Priority: models.PriorityNormal, Tags: []string{}, Order: 0, SectionName: "Schedule", Notes: []models.Note{}},
	}
	if err := s.SaveMeeting(p, t, m); err != nil {
		return false, err
	}
	return true, nil
}
