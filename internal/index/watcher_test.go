package index

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/minutebook/internal/layout"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind string, ref layout.MeetingRef) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+ref.Number)
	r.mu.Unlock()
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatcher_NewMeetingIndexed(t *testing.T) {
	root, st, p, tr := testStore(t)
	db := testDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{}
	go Watch(ctx, db, st, root, quietLogger(), rec.record)
	time.Sleep(100 * time.Millisecond)

	if _, err := st.CreateMeeting(p, tr, ""); err != nil {
		t.Fatal(err)
	}
	path := layout.MeetingXML(p.Slug, tr.Slug, "0001")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(path)
		return cs != ""
	}, "new meeting not indexed by watcher")
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:0001")
	}, "expected created:0001 callback")
}

func TestWatcher_UpdateReported(t *testing.T) {
	root, st, p, tr := testStore(t)
	db := testDB(t)
	m, err := st.CreateMeeting(p, tr, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, st, quietLogger()); err != nil {
		t.Fatal(err)
	}
	path := layout.MeetingXML(p.Slug, tr.Slug, "0001")
	before, _ := db.GetChecksum(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{}
	go Watch(ctx, db, st, root, quietLogger(), rec.record)
	time.Sleep(100 * time.Millisecond)

	m.Header.Topic = "Changed topic"
	if err := st.SaveMeeting(p, tr, m); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(path)
		return cs != "" && cs != before
	}, "updated meeting not re-indexed")
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("updated:0001")
	}, "expected updated:0001 callback")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	root, st, p, tr := testStore(t)
	db := testDB(t)
	if _, err := st.CreateMeeting(p, tr, ""); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, st, quietLogger()); err != nil {
		t.Fatal(err)
	}
	path := layout.MeetingXML(p.Slug, tr.Slug, "0001")
	if cs, _ := db.GetChecksum(path); cs == "" {
		t.Fatal("precondition: meeting should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, st, root, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	if err := st.DeleteMeeting(p.Slug, tr.Slug, "0001"); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(path)
		return cs == ""
	}, "deleted meeting still in index")
}

func TestWatcher_TrackDeletionReconciles(t *testing.T) {
	root, st, p, tr := testStore(t)
	db := testDB(t)
	for i := 0; i < 2; i++ {
		if _, err := st.CreateMeeting(p, tr, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := Sync(db, st, quietLogger()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, st, root, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	if err := st.DeleteTrack(p.Slug, tr.Slug); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		sums, _ := db.AllChecksums()
		return len(sums) == 0
	}, "meetings of a deleted track still in index")
}
