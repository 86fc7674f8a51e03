package models

// Note is a single annotation on an item. Notes are append-only; an addendum
// is a note recorded after the meeting it belongs to was held.
type Note struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	MeetingDate string `json:"meeting_date"`
	CreatedAt   string `json:"created_at"`
	IsAddendum  bool   `json:"is_addendum"`
}
