package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/minutebook/internal/meetingservice"
	"github.com/starford/minutebook/internal/models"
	"github.com/starford/minutebook/internal/testutil"
)

const trackBase = "/projects/apollo/tracks/weekly"

// testEnv sets up a temp data root, index, service and router. An empty
// authToken disables auth.
func testEnv(t *testing.T, authToken string) (http.Handler, string) {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, true, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, withIndex bool, sseHandler http.Handler) (http.Handler, string) {
	t.Helper()

	root, st := testutil.TestStore(t)
	logger := testutil.Logger()

	opts := []meetingservice.Option{meetingservice.WithLogger(logger)}
	if withIndex {
		opts = append(opts, meetingservice.WithIndex(testutil.TestDB(t)))
	}
	svc := meetingservice.New(st, opts...)
	return NewRouter(svc, authEnabled, authToken, sseHandler, logger), root
}

func do(t *testing.T, router http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// seedTrack creates project "Apollo" with track "Weekly" and its first meeting.
func seedTrack(t *testing.T, router http.Handler) MeetingDetail {
	t.Helper()
	if w := do(t, router, http.MethodPost, "/projects", NameRequest{Name: "Apollo"}); w.Code != http.StatusCreated {
		t.Fatalf("create project = %d, body = %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodPost, "/projects/apollo/tracks", NameRequest{Name: "Weekly"}); w.Code != http.StatusCreated {
		t.Fatalf("create track = %d, body = %s", w.Code, w.Body.String())
	}
	w := do(t, router, http.MethodPost, trackBase+"/meetings", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create meeting = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[MeetingDetail](t, w)
}

func TestProjectLifecycle(t *testing.T) {
	router, root := testEnv(t, "")
	seedTrack(t, router)

	w := do(t, router, http.MethodGet, "/projects", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	list := decode[ProjectListResponse](t, w)
	if len(list.Projects) != 1 || len(list.Projects[0].Tracks) != 1 {
		t.Fatalf("unexpected tree: %+v", list.Projects)
	}

	w = do(t, router, http.MethodPut, "/projects/apollo", NameRequest{Name: "Apollo Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename = %d, body = %s", w.Code, w.Body.String())
	}
	p := decode[models.Project](t, w)
	if p.Name != "Apollo Renamed" || p.Slug != "apollo" {
		t.Errorf("rename changed slug or kept name: %+v", p)
	}

	w = do(t, router, http.MethodDelete, "/projects/apollo", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if _, err := os.Stat(filepath.Join(root, "Projects", "apollo")); !os.IsNotExist(err) {
		t.Errorf("project directory still present: %v", err)
	}
	if w := do(t, router, http.MethodGet, "/projects/apollo", nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", w.Code)
	}
}

func TestCreateProject_InvalidName(t *testing.T) {
	router, _ := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/projects", NameRequest{Name: ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty name = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}
}

func TestUpdateTrack(t *testing.T) {
	router, _ := testEnv(t, "")
	seedTrack(t, router)

	mode := models.RecurrenceWeekly
	interval := 2
	body := TrackUpdateRequest{RecurrenceMode: &mode, RecurrenceInterval: &interval}
	w := do(t, router, http.MethodPut, trackBase, body)
	if w.Code != http.StatusOK {
		t.Fatalf("update track = %d, body = %s", w.Code, w.Body.String())
	}
	tr := decode[models.Track](t, w)
	if tr.RecurrenceMode != models.RecurrenceWeekly || tr.RecurrenceInterval != 2 {
		t.Errorf("recurrence = %q x%d", tr.RecurrenceMode, tr.RecurrenceInterval)
	}

	bad := "hourly"
	w = do(t, router, http.MethodPut, trackBase, TrackUpdateRequest{RecurrenceMode: &bad})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad mode = %d, want 400", w.Code)
	}
}

func TestMeetingNumbering(t *testing.T) {
	router, _ := testEnv(t, "")
	first := seedTrack(t, router)
	if first.Meeting.Number != "0001" {
		t.Fatalf("first number = %q", first.Meeting.Number)
	}

	w := do(t, router, http.MethodPost, trackBase+"/meetings/next", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("next = %d, body = %s", w.Code, w.Body.String())
	}
	if d := decode[MeetingDetail](t, w); d.Meeting.Number != "0002" {
		t.Errorf("next number = %q, want 0002", d.Meeting.Number)
	}

	w = do(t, router, http.MethodGet, trackBase+"/meetings", nil)
	list := decode[MeetingListResponse](t, w)
	if len(list.Meetings) != 2 {
		t.Fatalf("meetings = %+v", list.Meetings)
	}

	w = do(t, router, http.MethodPost, trackBase+"/meetings", CreateMeetingRequest{CopyFrom: "0042"})
	if w.Code != http.StatusNotFound {
		t.Errorf("copy from missing = %d, want 404", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	router, _ := testEnv(t, "")
	seedTrack(t, router)

	w := do(t, router, http.MethodGet, trackBase+"/meetings/0001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	d := decode[MeetingDetail](t, w)
	if etag != `"`+d.Checksum+`"` {
		t.Errorf("etag = %q, checksum = %q", etag, d.Checksum)
	}

	m := d.Meeting
	m.Header.Topic = "Quarterly review"
	w = do(t, router, http.MethodPut, trackBase+"/meetings/0001", m, "If-Match", `"stale"`)
	if w.Code != http.StatusConflict {
		t.Errorf("stale If-Match = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPut, trackBase+"/meetings/0001", m, "If-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	updated := decode[MeetingDetail](t, w)
	if updated.Meeting.Header.Topic != "Quarterly review" {
		t.Errorf("topic = %q", updated.Meeting.Header.Topic)
	}
	if updated.Checksum == d.Checksum {
		t.Error("checksum did not change")
	}
}

func TestUpdateMeeting_Invalid(t *testing.T) {
	router, _ := testEnv(t, "")
	d := seedTrack(t, router)

	m := d.Meeting
	m.Header.Date = "03/04/2024"
	w := do(t, router, http.MethodPut, trackBase+"/meetings/0001", m)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPut, trackBase+"/meetings/0009", d.Meeting)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing meeting = %d, want 404", w.Code)
	}
}

func TestFinalizeBlocksEdits(t *testing.T) {
	router, _ := testEnv(t, "")
	d := seedTrack(t, router)

	w := do(t, router, http.MethodPost, trackBase+"/meetings/0001/finalize", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finalize = %d, body = %s", w.Code, w.Body.String())
	}
	final := decode[MeetingDetail](t, w)
	if final.Meeting.FinalizedAt == "" {
		t.Fatal("finalized_at not set")
	}

	w = do(t, router, http.MethodPut, trackBase+"/meetings/0001", d.Meeting)
	if w.Code != http.StatusConflict {
		t.Errorf("update finalized = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPost, trackBase+"/meetings/0001/finalize", nil)
	if again := decode[MeetingDetail](t, w); again.Meeting.FinalizedAt != final.Meeting.FinalizedAt {
		t.Errorf("re-finalize changed stamp: %q -> %q", final.Meeting.FinalizedAt, again.Meeting.FinalizedAt)
	}
}

func TestDeleteMeeting(t *testing.T) {
	router, _ := testEnv(t, "")
	seedTrack(t, router)

	if w := do(t, router, http.MethodDelete, trackBase+"/meetings/0001", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, trackBase+"/meetings/0001", nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", w.Code)
	}
}

func TestExportMeeting(t *testing.T) {
	router, root := testEnv(t, "")
	seedTrack(t, router)

	w := do(t, router, http.MethodGet, trackBase+"/meetings/0001/export?format=ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "BEGIN:VCALENDAR\r\n") {
		t.Errorf("body = %q", w.Body.String())
	}
	out := w.Header().Get("X-Export-Path")
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(out))); err != nil {
		t.Errorf("export file missing: %v", err)
	}

	w = do(t, router, http.MethodGet, trackBase+"/meetings/0001/export?format=txt", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("txt export = %d %q", w.Code, w.Header().Get("Content-Type"))
	}

	if w := do(t, router, http.MethodGet, trackBase+"/meetings/0001/export?format=pdf", nil); w.Code != http.StatusNotImplemented {
		t.Errorf("pdf = %d, want 501", w.Code)
	}
	if w := do(t, router, http.MethodGet, trackBase+"/meetings/0001/export?format=xls", nil); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("xls = %d, want 422", w.Code)
	}
}

func TestSearchAndOpenItems(t *testing.T) {
	router, _ := testEnv(t, "")
	d := seedTrack(t, router)

	m := d.Meeting
	m.Sections = []models.Section{{ID: "s1", Name: "General", Order: 0}}
	m.Items = []models.Item{{
		ID: "i1", Description: "Review telemetry budget", Status: models.StatusOpen,
		Priority: models.PriorityHigh, AssigneeID: "p1", Tags: []string{"budget"}, SectionName: "General",
	}}
	if w := do(t, router, http.MethodPut, trackBase+"/meetings/0001", m); w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}

	w := do(t, router, http.MethodGet, "/search?q=telemetry", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	if res := decode[SearchResponse](t, w); len(res.Results) != 1 {
		t.Errorf("results = %+v", res.Results)
	}

	w = do(t, router, http.MethodGet, "/open-items?assignee=p1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("open items = %d", w.Code)
	}
	if res := decode[OpenItemsResponse](t, w); len(res.Items) != 1 || res.Items[0].Description != "Review telemetry budget" {
		t.Errorf("open items = %+v", res.Items)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestSearchWithoutIndex(t *testing.T) {
	router, _ := testEnvFull(t, false, "", false, nil)
	if w := do(t, router, http.MethodGet, "/search?q=x", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("search without index = %d, want 503", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/projects", nil, "Authorization", "Bearer secret")
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := testEnv(t, "secret")
	if w := do(t, router, http.MethodGet, "/projects", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/projects", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router, _ := testEnvFull(t, false, "ignored", true, nil)
	if w := do(t, router, http.MethodGet, "/projects", nil); w.Code != http.StatusOK {
		t.Errorf("disabled mode = %d", w.Code)
	}
}

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router, _ := testEnvFull(t, true, "secret", false, blockingSSE)
	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router, _ := testEnvFull(t, true, "tok", false, blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d", w.Code)
	}
}

func uploadFile(t *testing.T, router http.Handler, target, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAttachment(t *testing.T) {
	router, root := testEnv(t, "")
	seedTrack(t, router)

	w := uploadFile(t, router, trackBase+"/meetings/0001/attachments", "slides.pdf", []byte("%PDF-fake"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[AttachmentUploadResponse](t, w)
	if resp.Filename != "slides.pdf" || resp.Size != int64(len("%PDF-fake")) {
		t.Errorf("response = %+v", resp)
	}
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(resp.Path)))
	if err != nil {
		t.Fatalf("read attachment: %v", err)
	}
	if string(data) != "%PDF-fake" {
		t.Errorf("content = %q", data)
	}

	w = uploadFile(t, router, trackBase+"/meetings/0007/attachments", "x.txt", []byte("x"))
	if w.Code != http.StatusNotFound {
		t.Errorf("upload to missing meeting = %d, want 404", w.Code)
	}
}

func TestUploadAttachment_MissingField(t *testing.T) {
	router, _ := testEnv(t, "")
	seedTrack(t, router)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "value")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, trackBase+"/meetings/0001/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file field = %d, want 400", w.Code)
	}
}
