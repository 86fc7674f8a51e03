package export

import (
	"strings"
	"time"

	"github.com/starford/minutebook/internal/models"
)

const (
	icsLocalLayout = "20060102T150405"
	icsUTCLayout   = "20060102T150405Z"
	clockLayout    = "15:04"
)

var icsEscaper = strings.NewReplacer(
	`\`, `\\`, `;`, `\;`, `,`, `\,`,
	"\r\n", `\n`, "\n", `\n`, "\r", `\n`,
)

// EscapeICS escapes an ICS text value. Backslash, semicolon and comma are
// backslash escaped and every line break becomes a literal \n, so a value
// always stays on its own content line.
func EscapeICS(s string) string {
	return icsEscaper.Replace(s)
}

// ICS renders m as a single-event calendar. Start and end are floating local
// times built from the header; an end at or before the start becomes a one
// hour event. stamp is written as DTSTAMP in UTC. Lines are CRLF separated.
func ICS(p *models.Project, t *models.Track, m *models.Meeting, stamp time.Time) []byte {
	day, ok := models.ParseDate(m.Header.Date)
	if !ok {
		y, mo, d := stamp.Date()
		day = time.Date(y, mo, d, 0, 0, 0, 0, time.Local)
	}
	start := at(day, m.Header.Start, models.DefaultStart)
	end := at(day, m.Header.End, models.DefaultEnd)
	if !end.After(start) {
		end = start.Add(time.Hour)
	}

	agenda := Agenda(p, t, m)
	escaped := make([]string, len(agenda))
	for i, line := range agenda {
		escaped[i] = EscapeICS(line)
	}
	summary := m.Header.Topic
	if summary == "" {
		summary = "Meeting"
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//minutebook//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + m.ID + "@meetingmanager.local",
		"DTSTAMP:" + stamp.UTC().Format(icsUTCLayout),
		"DTSTART:" + start.Format(icsLocalLayout),
		"DTEND:" + end.Format(icsLocalLayout),
		"SUMMARY:" + EscapeICS(summary),
		"LOCATION:" + EscapeICS(m.Header.Location),
		"DESCRIPTION:" + strings.Join(escaped, `\n`),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return []byte(strings.Join(lines, "\r\n"))
}

// at returns day at the HH:MM wall clock v, falling back to def.
func at(day time.Time, v, def string) time.Time {
	c, err := time.Parse(clockLayout, v)
	if err != nil {
		c, _ = time.Parse(clockLayout, def)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, day.Location())
}
