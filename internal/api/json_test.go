package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func TestWriteJSON_EncodeFailureUsesGivenLogger(t *testing.T) {
	logger, buf := bufferLogger()
	w := httptest.NewRecorder()

	writeJSON(logger, w, http.StatusOK, map[string]any{"ch": make(chan int)})

	if !strings.Contains(buf.String(), "json encode failed") {
		t.Fatalf("encode failure not logged to injected logger: %q", buf.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}
}

func TestWriteError_InternalUsesHandlerLogger(t *testing.T) {
	logger, buf := bufferLogger()
	h := NewHandler(nil, logger)
	w := httptest.NewRecorder()

	h.writeError(w, "list projects", errors.New("disk on fire"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "disk on fire") {
		t.Errorf("internal detail leaked: %s", w.Body.String())
	}
	if !strings.Contains(buf.String(), "list projects failed") || !strings.Contains(buf.String(), "disk on fire") {
		t.Errorf("handler logger missing entry: %q", buf.String())
	}
}

func TestAuthMiddleware_RejectsWithJSON(t *testing.T) {
	logger, _ := bufferLogger()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler reached without token")
	})
	w := httptest.NewRecorder()
	AuthMiddleware(true, "secret", logger)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"unauthorized"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
