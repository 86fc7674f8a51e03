package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/minutebook/internal/checksum"
	"github.com/starford/minutebook/internal/export"
	"github.com/starford/minutebook/internal/meetingservice"
	"github.com/starford/minutebook/internal/models"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc    *meetingservice.Service
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *meetingservice.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		writeJSON(h.logger, w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func trackParams(r *http.Request) (string, string) {
	return chi.URLParam(r, "project"), chi.URLParam(r, "track")
}

// ListProjects handles GET /projects.
//
//	@Summary		List projects with their tracks
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	ProjectListResponse
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context())
	if err != nil {
		h.writeError(w, "list projects", err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, ProjectListResponse{Projects: projects})
}

// GetProject handles GET /projects/{project}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "project"))
	if err != nil {
		h.writeError(w, "get project", err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, p)
}

// CreateProject handles POST /projects.
//
//	@Summary		Create a project
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NameRequest	true	"Project name"
//	@Success		201		{object}	models.Project
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProject(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, "create project", err)
		return
	}
	writeJSON(h.logger, w, http.StatusCreated, p)
}

// RenameProject handles PUT /projects/{project}. Only the name changes.
func (h *Handler) RenameProject(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	p, err := h.svc.RenameProject(r.Context(), chi.URLParam(r, "project"), req.Name)
	if err != nil {
		h.writeError(w, "rename project", err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, p)
}

// DeleteProject handles DELETE /projects/{project}.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProject(r.Context(), chi.URLParam(r, "project")); err != nil {
		h.writeError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTrack handles POST /projects/{project}/tracks.
func (h *Handler) CreateTrack(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	t, err := h.svc.CreateTrack(r.Context(), chi.URLParam(r, "project"), req.Name)
	if err != nil {
		h.writeError(w, "create track", err)
		return
	}
	writeJSON(h.logger, w, http.StatusCreated, t)
}

// UpdateTrack handles PUT /projects/{project}/tracks/{track}.
//
//	@Summary		Update track name, defaults, roster, templates or recurrence
//	@Tags			tracks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TrackUpdateRequest	true	"Fields to change"
//	@Success		200		{object}	models.Track
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/tracks/{track} [put]
func (h *Handler) UpdateTrack(w http.ResponseWriter, r *http.Request) {
	var req TrackUpdateRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	p, t := trackParams(r)
	track, err := h.svc.UpdateTrack(r.Context(), p, t, req)
	if err != nil {
		h.writeError(w, "update track", err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, track)
}

// DeleteTrack handles DELETE /projects/{project}/tracks/{track}.
func (h *Handler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	p, t := trackParams(r)
	if err := h.svc.DeleteTrack(r.Context(), p, t); err != nil {
		h.writeError(w, "delete track", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMeetings handles GET .../tracks/{track}/meetings.
func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	p, t := trackParams(r)
	list, err := h.svc.ListMeetings(r.Context(), p, t)
	if err != nil {
		h.writeError(w, "list meetings", err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, MeetingListResponse{Meetings: list})
}

// CreateMeeting handles POST .../tracks/{track}/meetings.
//
//	@Summary		Create the next meeting, carrying open items forward
//	@Tags			meetings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateMeetingRequest	false	"Source meeting"
//	@Success		201		{object}	MeetingDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/tracks/{track}/meetings [post]
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req CreateMeetingRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	p, t := trackParams(r)
	d, err := h.svc.CreateMeeting(r.Context(), p, t, req.CopyFrom)
	if err != nil {
		h.writeError(w, "create meeting", err)
		return
	}
	writeJSON(h.logger, w, http.StatusCreated, d)
}

// CreateNextMeeting handles POST .../tracks/{track}/meetings/next.
func (h *Handler) CreateNextMeeting(w http.ResponseWriter, r *http.Request) {
	p, t := trackParams(r)
	d, err := h.svc.CreateNextMeeting(r.Context(), p, t)
	if err != nil {
		h.writeError(w, "create next meeting", err)
		return
	}
	writeJSON(h.logger, w, http.StatusCreated, d)
}

// GetMeeting handles GET .../meetings/{number}. The checksum is also sent as
// an ETag for use with If-Match.
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	p, t := trackParams(r)
	d, err := h.svc.GetMeeting(r.Context(), p, t, chi.URLParam(r, "number"))
	if err != nil {
		h.writeError(w, "get meeting", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(d.Checksum))
	writeJSON(h.logger, w, http.StatusOK, d)
}

// UpdateMeeting handles PUT .../meetings/{number}.
//
//	@Summary		Replace a draft meeting with optimistic concurrency
//	@Tags			meetings
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header	string			false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	models.Meeting	true	"Meeting"
//	@Success		200		{object}	MeetingDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/tracks/{track}/meetings/{number} [put]
func (h *Handler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	var m models.Meeting
	if !h.decodeBody(w, r, &m) {
		return
	}
	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))

	p, t := trackParams(r)
	d, err := h.svc.UpdateMeeting(r.Context(), p, t, chi.URLParam(r, "number"), &m, ifMatch)
	if err != nil {
		h.writeError(w, "update meeting", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(d.Checksum))
	writeJSON(h.logger, w, http.StatusOK, d)
}

// DeleteMeeting handles DELETE .../meetings/{number}.
func (h *Handler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	p, t := trackParams(r)
	if err := h.svc.DeleteMeeting(r.Context(), p, t, chi.URLParam(r, "number")); err != nil {
		h.writeError(w, "delete meeting", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FinalizeMeeting handles POST .../meetings/{number}/finalize.
func (h *Handler) FinalizeMeeting(w http.ResponseWriter, r *http.Request) {
	p, t := trackParams(r)
	d, err := h.svc.FinalizeMeeting(r.Context(), p, t, chi.URLParam(r, "number"))
	if err != nil {
		h.writeError(w, "finalize meeting", err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, d)
}

var exportContentTypes = map[string]string{
	export.FormatICS:  "text/calendar; charset=utf-8",
	export.FormatText: "text/plain; charset=utf-8",
}

// ExportMeeting handles GET .../meetings/{number}/export?format=ics|txt.
// The file is also written to the meeting's exports directory.
func (h *Handler) ExportMeeting(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatICS
	}
	p, t := trackParams(r)
	out, data, err := h.svc.Export(r.Context(), p, t, chi.URLParam(r, "number"), format)
	if err != nil {
		h.writeError(w, "export meeting", err)
		return
	}
	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(out)+`"`)
	w.Header().Set("X-Export-Path", out)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Search handles GET /search.
//
//	@Summary		Search agenda items across all meetings
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(h.logger, w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		h.writeError(w, "search", err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, SearchResponse{Results: results})
}

// OpenItems handles GET /open-items.
func (h *Handler) OpenItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.OpenItems(r.Context(), r.URL.Query().Get("assignee"))
	if err != nil {
		h.writeError(w, "open items", err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, OpenItemsResponse{Items: items})
}
