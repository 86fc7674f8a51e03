package xmlcodec

import (
	"encoding/xml"
	"strconv"

	"github.com/starford/minutebook/internal/models"
)

type projectDoc struct {
	XMLName xml.Name `xml:"Project"`
	ID      string   `xml:"id,attr"`
	Name    string   `xml:"Name"`
}

type trackDoc struct {
	XMLName          xml.Name     `xml:"Track"`
	ID               string       `xml:"id,attr"`
	Name             string       `xml:"Name"`
	Defaults         defaultsDoc  `xml:"Defaults"`
	SectionTemplates templatesDoc `xml:"SectionTemplates"`
	Roster           *rosterDoc   `xml:"Roster"`
}

type defaultsDoc struct {
	Location   string         `xml:"Location"`
	TeamsLink  string         `xml:"TeamsLink"`
	Recurrence *recurrenceDoc `xml:"Recurrence"`
}

type recurrenceDoc struct {
	Mode     string `xml:"mode,attr"`
	Interval string `xml:"interval,attr"`
}

type templatesDoc struct {
	Sections []templateDoc `xml:"Section"`
}

type templateDoc struct {
	Name string `xml:"name,attr"`
}

type rosterDoc struct {
	Members []string `xml:"Member"`
}

// EncodeProject renders the project header. Tracks are not embedded; they are
// discovered from the directory tree.
func EncodeProject(p *models.Project) ([]byte, error) {
	return marshal(projectDoc{ID: p.ID, Name: p.Name})
}

// DecodeProject parses project.xml. slug is the directory the file was found
// in and doubles as the name when the document has none.
func DecodeProject(data []byte, slug string, opts Options) (*models.Project, error) {
	var doc projectDoc
	if err := unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &models.Project{
		ID:     opts.idOr(doc.ID),
		Name:   orDefault(doc.Name, slug),
		Slug:   slug,
		Tracks: []*models.Track{},
	}, nil
}

// EncodeTrack renders track.xml.
func EncodeTrack(t *models.Track) ([]byte, error) {
	doc := trackDoc{
		ID:   t.ID,
		Name: t.Name,
		Defaults: defaultsDoc{
			Location:  t.DefaultsLocation,
			TeamsLink: t.DefaultsTeamsLink,
			Recurrence: &recurrenceDoc{
				Mode:     t.RecurrenceMode,
				Interval: strconv.Itoa(t.RecurrenceInterval),
			},
		},
	}
	for _, name := range t.SectionTemplates {
		doc.SectionTemplates.Sections = append(doc.SectionTemplates.Sections, templateDoc{Name: name})
	}
	if len(t.Roster) > 0 {
		doc.Roster = &rosterDoc{Members: t.Roster}
	}
	return marshal(doc)
}

// DecodeTrack parses track.xml found in directory slug. A missing Recurrence
// element means weekly with interval 1; intervals below 1 are raised to 1.
func DecodeTrack(data []byte, slug string, opts Options) (*models.Track, error) {
	var doc trackDoc
	if err := unmarshal(data, &doc); err != nil {
		return nil, err
	}
	t := models.NewTrack(opts.idOr(doc.ID), orDefault(doc.Name, slug), slug)
	t.DefaultsLocation = doc.Defaults.Location
	t.DefaultsTeamsLink = doc.Defaults.TeamsLink
	if r := doc.Defaults.Recurrence; r != nil {
		t.RecurrenceMode = orDefault(r.Mode, models.RecurrenceWeekly)
		t.RecurrenceInterval = max(1, atoiOr(r.Interval, 1))
	}
	for _, s := range doc.SectionTemplates.Sections {
		t.SectionTemplates = append(t.SectionTemplates, s.Name)
	}
	if doc.Roster != nil {
		t.Roster = append(t.Roster, doc.Roster.Members...)
	}
	return t, nil
}
