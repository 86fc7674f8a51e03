package api

import (
	"github.com/starford/minutebook/internal/index"
	"github.com/starford/minutebook/internal/meetingservice"
	"github.com/starford/minutebook/internal/models"
)

// NameRequest is the request body for creating or renaming a project or track.
type NameRequest struct {
	Name string `json:"name" example:"Apollo Program" validate:"required"`
}

// CreateMeetingRequest is the request body for creating a meeting. An empty
// CopyFrom clones the latest meeting.
type CreateMeetingRequest struct {
	CopyFrom string `json:"copy_from,omitempty" example:"0003"`
}

// ProjectListResponse wraps the project tree.
type ProjectListResponse struct {
	Projects []*models.Project `json:"projects" validate:"required"`
}

// MeetingListResponse wraps a track's meetings.
type MeetingListResponse struct {
	Meetings []meetingservice.MeetingSummary `json:"meetings" validate:"required"`
}

// MeetingDetail is the full meeting response type (aliased from the domain layer).
type MeetingDetail = meetingservice.MeetingDetail

// TrackUpdateRequest is the partial track update body (aliased from the domain layer).
type TrackUpdateRequest = meetingservice.TrackUpdate

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// OpenItemsResponse wraps open items.
type OpenItemsResponse struct {
	Items []index.OpenItem `json:"items" validate:"required"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename" example:"slides.pdf" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	Path     string `json:"path" example:"Projects/apollo/Tracks/weekly/Meetings/0001/attachments/slides.pdf" validate:"required"`
}
