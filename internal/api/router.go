package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/minutebook/internal/meetingservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *meetingservice.Service, authEnabled bool, token string, sseHandler http.Handler, logger *slog.Logger) chi.Router {
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token, h.logger))

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.Post("/", h.CreateProject)

		r.Route("/{project}", func(r chi.Router) {
			r.Get("/", h.GetProject)
			r.Put("/", h.RenameProject)
			r.Delete("/", h.DeleteProject)
			r.Post("/tracks", h.CreateTrack)

			r.Route("/tracks/{track}", func(r chi.Router) {
				r.Put("/", h.UpdateTrack)
				r.Delete("/", h.DeleteTrack)

				r.Get("/meetings", h.ListMeetings)
				r.Post("/meetings", h.CreateMeeting)
				r.Post("/meetings/next", h.CreateNextMeeting)

				r.Route("/meetings/{number}", func(r chi.Router) {
					r.Get("/", h.GetMeeting)
					r.Put("/", h.UpdateMeeting)
					r.Delete("/", h.DeleteMeeting)
					r.Post("/finalize", h.FinalizeMeeting)
					r.Get("/export", h.ExportMeeting)
					r.Post("/attachments", h.UploadAttachment)
				})
			})
		})
	})

	r.Get("/search", h.Search)
	r.Get("/open-items", h.OpenItems)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
