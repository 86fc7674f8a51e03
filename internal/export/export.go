// Package export renders meetings into shareable formats. Renderers only read
// the meeting; persisting the result is the caller's concern.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/minutebook/internal/apperr"
	"github.com/starford/minutebook/internal/models"
)

// Supported and recognised formats.
const (
	FormatICS  = "ics"
	FormatText = "txt"
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
)

// Render produces the document for format. Recognised formats without a
// renderer in this build fail with apperr.ErrExportUnavailable; unknown
// formats fail with apperr.ErrUnsupportedFormat.
func Render(format string, p *models.Project, t *models.Track, m *models.Meeting, now time.Time) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatICS:
		return ICS(p, t, m, now), nil
	case FormatText:
		return Text(p, t, m), nil
	case FormatPDF, FormatDOCX:
		return nil, fmt.Errorf("export %s: %w", format, apperr.ErrExportUnavailable)
	default:
		return nil, fmt.Errorf("export %q: %w", format, apperr.ErrUnsupportedFormat)
	}
}

// FileName returns the file name an export of m in format is stored under.
func FileName(m *models.Meeting, format string) string {
	return fmt.Sprintf("meeting-%s.%s", m.Number, strings.ToLower(format))
}

// Agenda flattens the meeting into display lines: a header block, then each
// section in order followed by its items and their notes. Sections are
// separated by a blank line.
func Agenda(p *models.Project, t *models.Track, m *models.Meeting) []string {
	h := m.Header
	lines := []string{
		"Project: " + p.Name,
		"Track: " + t.Name,
		fmt.Sprintf("Meeting: %s (%s)", m.Number, h.Date),
		fmt.Sprintf("Time: %s - %s", h.Start, h.End),
		"Location: " + h.Location,
	}
	if h.TeamsLink != "" {
		lines = append(lines, "Teams: "+h.TeamsLink)
	}
	lines = append(lines, "")

	for _, sec := range m.SortedSections() {
		name := sec.Name
		if name == "" {
			name = "Section"
		}
		lines = append(lines, name)
		items := m.ItemsInSection(sec.Name)
		if len(items) == 0 {
			lines = append(lines, "  (No items)")
		}
		for _, it := range items {
			lines = append(lines, fmt.Sprintf("  [%s] %s%s", it.Status, it.Description, itemMeta(it)))
			for _, n := range it.Notes {
				lines = append(lines, "    - "+noteLine(n))
			}
		}
		lines = append(lines, "")
	}
	return lines
}

func itemMeta(it models.Item) string {
	var bits []string
	if it.AssigneeID != "" {
		bits = append(bits, "Assigned to "+it.AssigneeID)
	}
	if it.DueDate != "" {
		bits = append(bits, "Due "+it.DueDate)
	}
	var tags []string
	for _, tag := range it.Tags {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) > 0 {
		bits = append(bits, strings.Join(tags, ", "))
	}
	if len(bits) == 0 {
		return ""
	}
	return " (" + strings.Join(bits, "; ") + ")"
}

func noteLine(n models.Note) string {
	prefix := "Note (" + n.MeetingDate + ")"
	if n.IsAddendum {
		prefix = "Addendum"
	}
	return prefix + ": " + strings.TrimSpace(n.Text)
}

// Text renders the agenda as plain text, topic first.
func Text(p *models.Project, t *models.Track, m *models.Meeting) []byte {
	topic := m.Header.Topic
	if topic == "" {
		topic = "Meeting Agenda"
	}
	var b strings.Builder
	b.WriteString(topic)
	b.WriteString("\n\n")
	for _, line := range Agenda(p, t, m) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
