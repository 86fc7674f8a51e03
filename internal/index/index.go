package index

import (
	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/models"
)

// MeetingIndex defines the index operations used by the API and MCP surfaces.
// Consumers depend on this interface rather than on *DB.
type MeetingIndex interface {
	UpsertMeeting(m MeetingRow, items []ItemRow) error
	DeleteMeeting(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	OpenItems(assignee string) ([]OpenItem, error)
	Close() error
}

// Verify *DB satisfies MeetingIndex at compile time.
var _ MeetingIndex = (*DB)(nil)

// Catalog is the read side of the store that the index is built from.
type Catalog interface {
	MeetingRefs() ([]layout.MeetingRef, error)
	FindTrack(projectSlug, trackSlug string) (*models.Project, *models.Track, error)
	LoadMeetingChecksum(p *models.Project, t *models.Track, number string) (*models.Meeting, string, error)
}
