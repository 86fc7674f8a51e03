package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/minutebook/internal/apperr"
	"github.com/starford/minutebook/internal/models"
)

func fixture() (*models.Project, *models.Track, *models.Meeting) {
	p := &models.Project{ID: "p1", Name: "Apollo", Slug: "apollo"}
	t := models.NewTrack("t1", "Weekly Sync", "weekly-sync")
	m := &models.Meeting{
		ID:     "abc123",
		Number: "0004",
		Header: models.MeetingHeader{
			Topic: "Sync; planning, Q3", Date: "2024-03-04",
			Start: "14:00", End: "15:30", Location: "Room 1", TeamsLink: "https://teams.example/x",
		},
		Sections: []models.Section{
			{ID: "s2", Name: "Actions", Order: 1},
			{ID: "s1", Name: "General", Order: 0},
			{ID: "s3", Name: "Empty", Order: 2},
		},
		Items: []models.Item{
			{ID: "i2", Description: "Second", Status: models.StatusInfo, Order: 1, SectionName: "General"},
			{ID: "i1", Description: "First", Status: models.StatusOpen, Order: 0, SectionName: "General",
				AssigneeID: "alice", DueDate: "2024-03-10", Tags: []string{"ops", "", "db"},
				Notes: []models.Note{
					{ID: "n1", Text: " checked logs ", MeetingDate: "2024-02-26"},
					{ID: "n2", Text: "late info", MeetingDate: "2024-03-04", IsAddendum: true},
				}},
			{ID: "i3", Description: `Fix a\b`, Status: models.StatusClosed, SectionName: "Actions"},
		},
	}
	return p, t, m
}

func TestAgenda(t *testing.T) {
	p, tr, m := fixture()
	got := Agenda(p, tr, m)
	want := []string{
		"Project: Apollo",
		"Track: Weekly Sync",
		"Meeting: 0004 (2024-03-04)",
		"Time: 14:00 - 15:30",
		"Location: Room 1",
		"Teams: https://teams.example/x",
		"",
		"General",
		"  [OPEN] First (Assigned to alice; Due 2024-03-10; ops, db)",
		"    - Note (2024-02-26): checked logs",
		"    - Addendum: late info",
		"  [INFO] Second",
		"",
		"Actions",
		`  [CLOSED] Fix a\b`,
		"",
		"Empty",
		"  (No items)",
		"",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("agenda mismatch:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestICS(t *testing.T) {
	p, tr, m := fixture()
	stamp := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	out := string(ICS(p, tr, m, stamp))

	lines := strings.Split(out, "\r\n")
	if lines[0] != "BEGIN:VCALENDAR" || lines[len(lines)-1] != "END:VCALENDAR" {
		t.Fatalf("bad envelope: %q", out)
	}
	for _, want := range []string{
		"UID:abc123@meetingmanager.local",
		"DTSTAMP:20240301T083000Z",
		"DTSTART:20240304T140000",
		"DTEND:20240304T153000",
		`SUMMARY:Sync\; planning\, Q3`,
		"LOCATION:Room 1",
	} {
		if !contains(lines, want) {
			t.Errorf("missing line %q in\n%s", want, out)
		}
	}
	if strings.Count(out, "BEGIN:VEVENT") != 1 {
		t.Error("expected exactly one VEVENT")
	}

	var desc string
	for _, l := range lines {
		if strings.HasPrefix(l, "DESCRIPTION:") {
			desc = l
		}
	}
	if !strings.Contains(desc, `Project: Apollo\nTrack: Weekly Sync`) {
		t.Errorf("description lines not joined: %q", desc)
	}
	if !strings.Contains(desc, `(Assigned to alice\; Due 2024-03-10\; ops\, db)`) {
		t.Errorf("description not escaped: %q", desc)
	}
	if !strings.Contains(desc, `Fix a\\b`) {
		t.Errorf("backslash not escaped: %q", desc)
	}
}

func TestICSEscapesLineBreaks(t *testing.T) {
	p, tr, m := fixture()
	m.Header.Location = "Room 1\r\nBuilding B"
	m.Items[0].Notes = append(m.Items[0].Notes, models.Note{
		ID: "n9", Text: "first line\nEND:VEVENT\rBEGIN:VALARM", MeetingDate: "2024-03-04",
	})
	out := string(ICS(p, tr, m, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	lines := strings.Split(out, "\r\n")

	ends := 0
	for _, l := range lines {
		if strings.ContainsAny(l, "\r\n") {
			t.Errorf("raw line break inside content line %q", l)
		}
		if l == "END:VEVENT" {
			ends++
		}
	}
	if ends != 1 {
		t.Fatalf("END:VEVENT lines = %d, want 1:\n%s", ends, out)
	}
	if !contains(lines, `LOCATION:Room 1\nBuilding B`) {
		t.Errorf("location line break not escaped:\n%s", out)
	}
	if !strings.Contains(out, `first line\nEND:VEVENT\nBEGIN:VALARM`) {
		t.Errorf("note line breaks not escaped:\n%s", out)
	}
}

func TestEscapeICS(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{`a\b`, `a\\b`},
		{"x;y,z", `x\;y\,z`},
		{"one\ntwo", `one\ntwo`},
		{"one\r\ntwo", `one\ntwo`},
		{"one\rtwo", `one\ntwo`},
		{"tail\\\n", `tail\\\n`},
	}
	for _, c := range cases {
		if got := EscapeICS(c.in); got != c.want {
			t.Errorf("EscapeICS(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestICSDefaultsToOneHour(t *testing.T) {
	p, tr, m := fixture()
	m.Header.Start = "11:00"
	m.Header.End = "10:00"
	out := string(ICS(p, tr, m, time.Now()))
	if !strings.Contains(out, "DTSTART:20240304T110000\r\n") || !strings.Contains(out, "DTEND:20240304T120000\r\n") {
		t.Fatalf("unexpected times:\n%s", out)
	}

	m.Header.Start = "bogus"
	m.Header.End = ""
	out = string(ICS(p, tr, m, time.Now()))
	if !strings.Contains(out, "DTSTART:20240304T090000\r\n") || !strings.Contains(out, "DTEND:20240304T100000\r\n") {
		t.Fatalf("unexpected fallback times:\n%s", out)
	}
}

func TestRender(t *testing.T) {
	p, tr, m := fixture()
	now := time.Now()

	data, err := Render("ICS", p, tr, m, now)
	if err != nil || !strings.HasPrefix(string(data), "BEGIN:VCALENDAR") {
		t.Fatalf("ics: %v", err)
	}
	data, err = Render(FormatText, p, tr, m, now)
	if err != nil || !strings.HasPrefix(string(data), "Sync; planning, Q3\n\nProject: Apollo\n") {
		t.Fatalf("txt: %v %q", err, data)
	}

	for _, f := range []string{FormatPDF, FormatDOCX} {
		if _, err := Render(f, p, tr, m, now); !errors.Is(err, apperr.ErrExportUnavailable) {
			t.Errorf("%s: got %v, want ErrExportUnavailable", f, err)
		}
	}
	if _, err := Render("odt", p, tr, m, now); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("odt: got %v, want ErrUnsupportedFormat", err)
	}
}

func TestFileName(t *testing.T) {
	_, _, m := fixture()
	if got := FileName(m, "ICS"); got != "meeting-0004.ics" {
		t.Fatalf("got %q", got)
	}
}

func contains(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}
