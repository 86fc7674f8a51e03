// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes minutebook tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/minutebook/internal/meetingservice"
	"github.com/starford/minutebook/internal/models"
	"github.com/starford/minutebook/internal/slug"
	"github.com/starford/minutebook/internal/xmlcodec"
)

const guideURI = "minutebook://meeting-guide"

// Server wraps the MCP server with minutebook tools.
type Server struct {
	mcp *server.MCPServer
	svc *meetingservice.Service
	now func() time.Time
}

// New creates a new MCP server with all minutebook tools registered.
func New(svc *meetingservice.Service) *Server {
	s := &Server{svc: svc, now: time.Now}

	s.mcp = server.NewMCPServer(
		"minutebook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all projects with their tracks and recurrence settings."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("list_meetings",
		mcp.WithDescription("List the meetings of a track in number order."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug")),
		mcp.WithString("track", mcp.Required(), mcp.Description("Track slug")),
	), s.listMeetings)

	s.mcp.AddTool(mcp.NewTool("read_meeting",
		mcp.WithDescription("Read a meeting as a plain-text agenda, or as JSON with format=json."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug")),
		mcp.WithString("track", mcp.Required(), mcp.Description("Track slug")),
		mcp.WithString("number", mcp.Required(), mcp.Description("Meeting number (e.g. 0003)")),
		mcp.WithString("format", mcp.Description("text (default) or json")),
	), s.readMeeting)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Search agenda items, tags and notes across all meetings."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("open_items",
		mcp.WithDescription("List OPEN items of every track's latest meeting, soonest due first."),
		mcp.WithString("assignee", mcp.Description("Optional roster ID to filter by")),
	), s.openItems)

	s.mcp.AddTool(mcp.NewTool("create_next_meeting",
		mcp.WithDescription("Create the next meeting of a track. The date follows the track's "+
			"recurrence and OPEN/INFO items carry forward from the latest meeting."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug")),
		mcp.WithString("track", mcp.Required(), mcp.Description("Track slug")),
	), s.createNextMeeting)

	s.mcp.AddTool(mcp.NewTool("finalize_meeting",
		mcp.WithDescription("Finalize a meeting. Finalized meetings can no longer be edited."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug")),
		mcp.WithString("track", mcp.Required(), mcp.Description("Track slug")),
		mcp.WithString("number", mcp.Required(), mcp.Description("Meeting number")),
	), s.finalizeMeeting)

	s.mcp.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Append a note to an agenda item of a draft meeting. Notes written "+
			"after the meeting date are recorded as addenda."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug")),
		mcp.WithString("track", mcp.Required(), mcp.Description("Track slug")),
		mcp.WithString("number", mcp.Required(), mcp.Description("Meeting number")),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Item ID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text")),
	), s.addNote)

	s.mcp.AddTool(mcp.NewTool("attach_file",
		mcp.WithDescription("Download a file from an http(s) URL or decode a base64 data URI and "+
			"store it in a meeting's attachments folder."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug")),
		mcp.WithString("track", mcp.Required(), mcp.Description("Track slug")),
		mcp.WithString("number", mcp.Required(), mcp.Description("Meeting number")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data URI")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.attachFile)

	s.mcp.AddTool(mcp.NewTool("get_meeting_guide",
		mcp.WithDescription("Returns how meetings, items, statuses and carry-forward work. "+
			"Call this before editing meetings."),
	), s.getMeetingGuide)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Meeting Guide",
			mcp.WithResourceDescription("How minutebook organizes meetings and agenda items."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMeetingGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// trackArgs reads the required project and track arguments.
func trackArgs(req mcp.CallToolRequest) (string, string, error) {
	p, err := req.RequireString("project")
	if err != nil {
		return "", "", err
	}
	t, err := req.RequireString("track")
	if err != nil {
		return "", "", err
	}
	return p, t, nil
}

func meetingArgs(req mcp.CallToolRequest) (string, string, string, error) {
	p, t, err := trackArgs(req)
	if err != nil {
		return "", "", "", err
	}
	n, err := req.RequireString("number")
	if err != nil {
		return "", "", "", err
	}
	return p, t, n, nil
}

func (s *Server) listProjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.svc.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(projects), nil
}

func (s *Server) listMeetings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, t, err := trackArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.svc.ListMeetings(ctx, p, t)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("no meetings yet"), nil
	}
	lines := make([]string, 0, len(list))
	for _, m := range list {
		line := fmt.Sprintf("%s  %s  %s", m.Number, m.Date, m.Topic)
		if m.FinalizedAt != "" {
			line += "  [finalized]"
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readMeeting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, t, n, err := meetingArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.GetString("format", "text") == "json" {
		d, err := s.svc.GetMeeting(ctx, p, t, n)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(d), nil
	}
	text, err := s.svc.Agenda(ctx, p, t, n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) searchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) openItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.OpenItems(ctx, req.GetString("assignee", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items), nil
}

func (s *Server) createNextMeeting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, t, err := trackArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.CreateNextMeeting(ctx, p, t)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s/%s/%s on %s", p, t, d.Meeting.Number, d.Meeting.Header.Date)), nil
}

func (s *Server) finalizeMeeting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, t, n, err := meetingArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.FinalizeMeeting(ctx, p, t, n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("finalized: %s/%s/%s at %s", p, t, n, d.Meeting.FinalizedAt)), nil
}

func (s *Server) addNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, t, n, err := meetingArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.svc.GetMeeting(ctx, p, t, n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m := d.Meeting
	idx := -1
	for i := range m.Items {
		if m.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("item not found: %s", itemID)), nil
	}

	now := s.now()
	m.Items[idx].AddNote(models.Note{
		ID:          slug.NewID(),
		Text:        text,
		MeetingDate: m.Header.Date,
		CreatedAt:   now.Format(xmlcodec.TimestampLayout),
		IsAddendum:  now.Format(models.DateLayout) > m.Header.Date,
	})
	if _, err := s.svc.UpdateMeeting(ctx, p, t, n, m, d.Checksum); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("note added to %s", itemID)), nil
}

func (s *Server) getMeetingGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MeetingGuide), nil
}

func (s *Server) readMeetingGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     MeetingGuide,
		},
	}, nil
}
