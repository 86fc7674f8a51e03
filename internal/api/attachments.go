package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadAttachment handles POST .../meetings/{number}/attachments
// (multipart/form-data, field "file"). The file lands in the meeting's
// attachments directory under its base name.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(h.logger, w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(h.logger, w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(h.logger, w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	p, t := trackParams(r)
	out, err := h.svc.AddAttachment(r.Context(), p, t, chi.URLParam(r, "number"), header.Filename, data)
	if err != nil {
		h.writeError(w, "upload attachment", err)
		return
	}

	writeJSON(h.logger, w, http.StatusCreated, AttachmentUploadResponse{
		Filename: header.Filename,
		Size:     int64(len(data)),
		Path:     out,
	})
}
