// Package models defines the domain types for minutebook.
package models

import (
	"slices"
	"sort"
)

// Item statuses.
const (
	StatusOpen   = "OPEN"
	StatusInfo   = "INFO"
	StatusClosed = "CLOSED"
)

// Item priorities.
const (
	PriorityLow    = "Low"
	PriorityNormal = "Normal"
	PriorityHigh   = "High"
)

// Header defaults used when a meeting is created or a field is missing on disk.
const (
	DefaultStart  = "09:00"
	DefaultEnd    = "10:00"
	DefaultNumber = "0001"
)

// Item is an agenda entry. SectionName joins it to a Section of the owning meeting.
type Item struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	AssigneeID  string   `json:"assignee_id,omitempty"` // weak roster reference
	Priority    string   `json:"priority"`
	DueDate     string   `json:"due_date,omitempty"`
	Tags        []string `json:"tags"`
	Order       int      `json:"order"`
	SectionName string   `json:"section_name"`
	Notes       []Note   `json:"notes"`
}

// Carried reports whether the item moves forward into the next meeting.
func (it *Item) Carried() bool {
	return it.Status == StatusOpen || it.Status == StatusInfo
}

// AddNote appends a note to the item.
func (it *Item) AddNote(n Note) {
	it.Notes = append(it.Notes, n)
}

// Section is a named, ordered group of items.
type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// MeetingHeader holds the scheduling details of a meeting.
type MeetingHeader struct {
	Topic     string `json:"topic"`
	Date      string `json:"date"`  // YYYY-MM-DD
	Start     string `json:"start"` // HH:MM
	End       string `json:"end"`   // HH:MM
	Location  string `json:"location"`
	TeamsLink string `json:"teams_link"`
}

// Meeting is one numbered instance of a track.
type Meeting struct {
	ID          string        `json:"id"`
	Number      string        `json:"number"`
	Header      MeetingHeader `json:"header"`
	Sections    []Section     `json:"sections"`
	Items       []Item        `json:"items"`
	FinalizedAt string        `json:"finalized_at,omitempty"`
}

// IsFinalized reports whether the meeting has been finalized.
func (m *Meeting) IsFinalized() bool {
	return m.FinalizedAt != ""
}

// SortedSections returns the sections ordered by Order. Ties keep their slice order.
func (m *Meeting) SortedSections() []Section {
	out := slices.Clone(m.Sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ItemsInSection returns the items joined to the named section, ordered by Order.
func (m *Meeting) ItemsInSection(name string) []Item {
	var out []Item
	for _, it := range m.Items {
		if it.SectionName == name {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Section returns the section with the given name.
func (m *Meeting) Section(name string) (Section, bool) {
	for _, s := range m.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// RenameSection renames a section and re-keys its items in the same step, so
// items never reference a name that no longer exists.
func (m *Meeting) RenameSection(oldName, newName string) bool {
	found := false
	for i := range m.Sections {
		if m.Sections[i].Name == oldName {
			m.Sections[i].Name = newName
			found = true
		}
	}
	if !found {
		return false
	}
	for i := range m.Items {
		if m.Items[i].SectionName == oldName {
			m.Items[i].SectionName = newName
		}
	}
	return true
}

// Renumber rewrites section orders and per-section item orders as dense 0..n-1
// sequences, preserving the current relative order.
func (m *Meeting) Renumber() {
	sections := m.SortedSections()
	pos := make(map[string]int, len(sections))
	for i, s := range sections {
		pos[s.ID] = i
	}
	for i := range m.Sections {
		m.Sections[i].Order = pos[m.Sections[i].ID]
	}

	idx := make([]int, len(m.Items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return m.Items[idx[a]].Order < m.Items[idx[b]].Order })
	next := make(map[string]int)
	for _, i := range idx {
		name := m.Items[i].SectionName
		m.Items[i].Order = next[name]
		next[name]++
	}
}
