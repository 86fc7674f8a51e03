package xmlcodec

import (
	"encoding/xml"
	"strconv"
	"time"

	"github.com/starford/minutebook/internal/models"
)

type meetingDoc struct {
	XMLName     xml.Name  `xml:"Meeting"`
	ID          string    `xml:"id,attr"`
	Number      string    `xml:"number,attr"`
	Header      headerDoc `xml:"Header"`
	Agenda      agendaDoc `xml:"Agenda"`
	FinalizedAt string    `xml:"FinalizedAt,omitempty"`
}

type headerDoc struct {
	Topic     string `xml:"Topic"`
	Date      string `xml:"Date"`
	Start     string `xml:"Start"`
	End       string `xml:"End"`
	Location  string `xml:"Location"`
	TeamsLink string `xml:"TeamsLink"`
}

type agendaDoc struct {
	Sections []sectionDoc `xml:"Section"`
}

type sectionDoc struct {
	ID    string    `xml:"id,attr"`
	Name  string    `xml:"name,attr"`
	Order string    `xml:"order,attr"`
	Items []itemDoc `xml:"Item"`
}

type itemDoc struct {
	ID          string       `xml:"id,attr"`
	Status      string       `xml:"status,attr"`
	Order       string       `xml:"order,attr"`
	Description string       `xml:"Description"`
	Assignee    *assigneeDoc `xml:"Assignee"`
	Priority    string       `xml:"Priority"`
	DueDate     string       `xml:"DueDate,omitempty"`
	Tags        tagsDoc      `xml:"Tags"`
	Notes       notesDoc     `xml:"Notes"`
}

type assigneeDoc struct {
	Ref string `xml:"ref,attr"`
}

type tagsDoc struct {
	Tags []string `xml:"Tag"`
}

type notesDoc struct {
	Notes []noteDoc `xml:"Note"`
}

type noteDoc struct {
	ID          string `xml:"id,attr"`
	MeetingDate string `xml:"meetingDate,attr"`
	CreatedAt   string `xml:"createdAt,attr"`
	Addendum    string `xml:"addendum,attr"`
	Text        string `xml:",chardata"`
}

// EncodeMeeting renders m as a meeting.xml document. Sections are written in
// Order; each section holds the items whose SectionName matches it, in Order.
// Items that match no section are not written.
func EncodeMeeting(m *models.Meeting) ([]byte, error) {
	doc := meetingDoc{
		ID:     m.ID,
		Number: m.Number,
		Header: headerDoc{
			Topic:     m.Header.Topic,
			Date:      m.Header.Date,
			Start:     m.Header.Start,
			End:       m.Header.End,
			Location:  m.Header.Location,
			TeamsLink: m.Header.TeamsLink,
		},
		FinalizedAt: m.FinalizedAt,
	}
	for _, s := range m.SortedSections() {
		sd := sectionDoc{ID: s.ID, Name: s.Name, Order: strconv.Itoa(s.Order)}
		for _, it := range m.ItemsInSection(s.Name) {
			sd.Items = append(sd.Items, encodeItem(it))
		}
		doc.Agenda.Sections = append(doc.Agenda.Sections, sd)
	}
	return marshal(doc)
}

func encodeItem(it models.Item) itemDoc {
	d := itemDoc{
		ID:          it.ID,
		Status:      it.Status,
		Order:       strconv.Itoa(it.Order),
		Description: it.Description,
		Priority:    it.Priority,
		DueDate:     it.DueDate,
		Tags:        tagsDoc{Tags: it.Tags},
	}
	if it.AssigneeID != "" {
		d.Assignee = &assigneeDoc{Ref: it.AssigneeID}
	}
	for _, n := range it.Notes {
		d.Notes.Notes = append(d.Notes.Notes, noteDoc{
			ID:          n.ID,
			MeetingDate: n.MeetingDate,
			CreatedAt:   n.CreatedAt,
			Addendum:    strconv.FormatBool(n.IsAddendum),
			Text:        n.Text,
		})
	}
	return d
}

// DecodeMeeting parses a meeting.xml document. Missing header location and
// link fall back to the track's defaults; t may be nil.
func DecodeMeeting(data []byte, t *models.Track, opts Options) (*models.Meeting, error) {
	var doc meetingDoc
	if err := unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var defLocation, defLink string
	if t != nil {
		defLocation, defLink = t.DefaultsLocation, t.DefaultsTeamsLink
	}
	now := opts.now()

	m := &models.Meeting{
		ID:     opts.idOr(doc.ID),
		Number: orDefault(doc.Number, models.DefaultNumber),
		Header: models.MeetingHeader{
			Topic:     doc.Header.Topic,
			Date:      orDefault(doc.Header.Date, now.Format(models.DateLayout)),
			Start:     orDefault(doc.Header.Start, models.DefaultStart),
			End:       orDefault(doc.Header.End, models.DefaultEnd),
			Location:  orDefault(doc.Header.Location, defLocation),
			TeamsLink: orDefault(doc.Header.TeamsLink, defLink),
		},
		Sections:    []models.Section{},
		Items:       []models.Item{},
		FinalizedAt: doc.FinalizedAt,
	}

	for _, sd := range doc.Agenda.Sections {
		m.Sections = append(m.Sections, models.Section{
			ID:    opts.idOr(sd.ID),
			Name:  sd.Name,
			Order: atoiOr(sd.Order, 0),
		})
		for _, id := range sd.Items {
			m.Items = append(m.Items, decodeItem(id, sd.Name, m.Header.Date, now, opts))
		}
	}
	return m, nil
}

func decodeItem(d itemDoc, section, meetingDate string, now time.Time, opts Options) models.Item {
	it := models.Item{
		ID:          opts.idOr(d.ID),
		Description: d.Description,
		Status:      orDefault(d.Status, models.StatusOpen),
		Priority:    orDefault(d.Priority, models.PriorityNormal),
		DueDate:     d.DueDate,
		Tags:        append([]string{}, d.Tags.Tags...),
		Order:       atoiOr(d.Order, 0),
		SectionName: section,
		Notes:       []models.Note{},
	}
	if d.Assignee != nil {
		it.AssigneeID = d.Assignee.Ref
	}
	for _, nd := range d.Notes.Notes {
		it.Notes = append(it.Notes, models.Note{
			ID:          opts.idOr(nd.ID),
			Text:        nd.Text,
			MeetingDate: orDefault(nd.MeetingDate, meetingDate),
			CreatedAt:   orDefault(nd.CreatedAt, now.Format(TimestampLayout)),
			IsAddendum:  nd.Addendum == "true",
		})
	}
	return it
}
