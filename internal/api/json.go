package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/minutebook/internal/apperr"
	"github.com/starford/minutebook/internal/meetingservice"
)

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported as 500 without detail.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrAlreadyExists), errors.Is(err, apperr.ErrFinalized):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrUnsupportedFormat):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrExportUnavailable):
		status = http.StatusNotImplemented
	case errors.Is(err, meetingservice.ErrIndexDisabled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(h.logger, w, status, errorBody("internal error"))
		return
	}
	writeJSON(h.logger, w, status, errorBody(err.Error()))
}
