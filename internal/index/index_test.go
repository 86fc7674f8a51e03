package index

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/minutebook/internal/layout"
	"github.com/starford/minutebook/internal/models"
	"github.com/starford/minutebook/internal/storage"
	"github.com/starford/minutebook/internal/store"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

// testStore returns a store over a fresh data root with one project and track.
func testStore(t *testing.T) (string, *store.Store, *models.Project, *models.Track) {
	t.Helper()
	root := t.TempDir()
	fs, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.New(fs, store.WithLogger(testLogger()))
	if err != nil {
		t.Fatal(err)
	}
	p, err := st.CreateProject("Apollo")
	if err != nil {
		t.Fatal(err)
	}
	tr, err := st.CreateTrack(p, "Weekly")
	if err != nil {
		t.Fatal(err)
	}
	return root, st, p, tr
}

func meetingRow(project, track, number, checksum string) MeetingRow {
	ref := layout.MeetingRef{Project: project, Track: track, Number: number}
	return MeetingRow{Path: ref.Path(), Project: project, Track: track, Number: number,
		Date: "2024-03-04", Topic: "Sync", Checksum: checksum, UpdatedAt: time.Now()}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM meetings`).Scan(&count); err != nil {
		t.Fatalf("meetings table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM items`).Scan(&count); err != nil {
		t.Fatalf("items table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := meetingRow("p", "t", "0001", "abc123")
	items := []ItemRow{{ItemID: "i1", Section: "General", Description: "Budget", Status: "OPEN", Tags: []string{"money"}}}
	if err := db.UpsertMeeting(row, items); err != nil {
		t.Fatalf("UpsertMeeting: %v", err)
	}
	cs, err := db.GetChecksum(row.Path)
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestUpsertReplacesItems(t *testing.T) {
	db := testDB(t)
	row := meetingRow("p", "t", "0001", "1")
	_ = db.UpsertMeeting(row, []ItemRow{{ItemID: "a", Description: "old wording", Status: "OPEN"}})
	row.Checksum = "2"
	_ = db.UpsertMeeting(row, []ItemRow{{ItemID: "b", Description: "new wording", Status: "OPEN"}})

	if res, _ := db.Search("old wording", 10); len(res) != 0 {
		t.Errorf("old item should be replaced, got %+v", res)
	}
	res, err := db.Search("new wording", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].ItemID != "b" {
		t.Errorf("search = %+v, want item b", res)
	}
}

func TestDeleteMeeting(t *testing.T) {
	db := testDB(t)
	row := meetingRow("p", "t", "0001", "x")
	_ = db.UpsertMeeting(row, []ItemRow{{ItemID: "a", Description: "doomed", Status: "OPEN"}})

	if err := db.DeleteMeeting(row.Path); err != nil {
		t.Fatalf("DeleteMeeting: %v", err)
	}
	if cs, _ := db.GetChecksum(row.Path); cs != "" {
		t.Errorf("deleted meeting still has checksum %q", cs)
	}
	if res, _ := db.Search("doomed", 10); len(res) != 0 {
		t.Errorf("deleted items still searchable: %+v", res)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("Projects/x/Tracks/y/Meetings/0001/meeting.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_MatchesNotesAndTags(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMeeting(meetingRow("p", "t", "0002", "1"), []ItemRow{
		{ItemID: "a", Section: "Ops", Description: "Rotate keys", Status: "OPEN", Tags: []string{"security"}},
		{ItemID: "b", Section: "Ops", Description: "Backups", Status: "INFO", Notes: "restore drill went fine"},
	})

	res, err := db.Search("security", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].ItemID != "a" || res[0].Number != "0002" || res[0].Project != "p" {
		t.Errorf("tag search = %+v", res)
	}
	res, _ = db.Search("drill", 10)
	if len(res) != 1 || res[0].ItemID != "b" {
		t.Errorf("note search = %+v", res)
	}
}

func TestOpenItems_LatestMeetingOnly(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMeeting(meetingRow("p", "t", "0001", "1"), []ItemRow{
		{ItemID: "old", Description: "stale open", Status: "OPEN", Assignee: "alice"},
	})
	_ = db.UpsertMeeting(meetingRow("p", "t", "0010", "2"), []ItemRow{
		{ItemID: "a", Description: "undated", Status: "OPEN", Assignee: "alice"},
		{ItemID: "b", Description: "dated", Status: "OPEN", Assignee: "bob", DueDate: "2024-03-10"},
		{ItemID: "c", Description: "closed", Status: "CLOSED", Assignee: "alice"},
		{ItemID: "d", Description: "fyi", Status: "INFO", Assignee: "alice"},
	})
	_ = db.UpsertMeeting(meetingRow("p", "other", "0002", "3"), []ItemRow{
		{ItemID: "e", Description: "other track", Status: "OPEN", Assignee: "alice"},
	})

	all, err := db.OpenItems("")
	if err != nil {
		t.Fatalf("OpenItems: %v", err)
	}
	var ids []string
	for _, it := range all {
		ids = append(ids, it.ItemID)
	}
	if len(ids) != 3 || ids[0] != "b" {
		t.Fatalf("open items = %v, want b first then a and e", ids)
	}

	alice, _ := db.OpenItems("alice")
	if len(alice) != 2 {
		t.Fatalf("alice open items = %+v", alice)
	}
	for _, it := range alice {
		if it.ItemID == "old" {
			t.Error("items of older meetings must not be reported")
		}
	}
}

func TestSync(t *testing.T) {
	_, st, p, tr := testStore(t)
	db := testDB(t)

	m, err := st.CreateMeeting(p, tr, "")
	if err != nil {
		t.Fatal(err)
	}
	m.Sections = []models.Section{{ID: "s", Name: "General"}}
	m.Items = []models.Item{{ID: "i", Description: "Ship the release", Status: models.StatusOpen,
		Priority: models.PriorityNormal, Tags: []string{}, SectionName: "General"}}
	if err := st.SaveMeeting(p, tr, m); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateMeeting(p, tr, ""); err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, st, testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	sums, _ := db.AllChecksums()
	if len(sums) != 2 {
		t.Fatalf("indexed %d meetings, want 2", len(sums))
	}
	res, _ := db.Search("release", 10)
	if len(res) != 2 {
		t.Errorf("expected the carried item in both meetings, got %+v", res)
	}

	if err := st.DeleteMeeting(p.Slug, tr.Slug, "0001"); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, st, testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	sums, _ = db.AllChecksums()
	if len(sums) != 1 {
		t.Fatalf("stale meeting not removed: %v", sums)
	}
	if _, ok := sums[layout.MeetingXML(p.Slug, tr.Slug, "0002")]; !ok {
		t.Errorf("meeting 0002 missing from index: %v", sums)
	}
}

func TestSync_MalformedMeetingDropped(t *testing.T) {
	root, st, p, tr := testStore(t)
	db := testDB(t)
	if _, err := st.CreateMeeting(p, tr, ""); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, st, testLogger()); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(root, filepath.FromSlash(layout.MeetingXML(p.Slug, tr.Slug, "0001")))
	if err := os.WriteFile(path, []byte("<Meeting>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, st, testLogger()); err != nil {
		t.Fatal(err)
	}
	if sums, _ := db.AllChecksums(); len(sums) != 0 {
		t.Errorf("malformed meeting should leave the index: %v", sums)
	}
}
