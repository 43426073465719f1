package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/inkwellhq/inkwell/dbopen"
	"github.com/inkwellhq/inkwell/interpret"
	"github.com/inkwellhq/inkwell/session"
)

func testState(id string) *session.State {
	return &session.State{
		ID:             id,
		PendingInput:   "delete the old entry in Notes",
		RequireConfirm: true,
		Queue: []interpret.Descriptor{
			{Action: interpret.ActionWrite, Content: "call mom", PrimaryTarget: "Daily Tasks"},
		},
		LastTarget: "Notes",
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := session.NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, testState("abc")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.RequireConfirm || got.PendingInput != "delete the old entry in Notes" {
		t.Errorf("state = %+v", got)
	}
	if len(got.Queue) != 1 || got.Queue[0].Content != "call mom" {
		t.Errorf("queue = %+v", got.Queue)
	}
}

func TestMemoryStoreUnknown(t *testing.T) {
	s := session.NewMemoryStore(time.Minute)
	defer s.Close()

	_, err := s.Get(context.Background(), "nope")
	var notFound session.ErrSessionNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreEvict(t *testing.T) {
	s := session.NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()

	s.Put(ctx, testState("abc"))
	if err := s.Evict(ctx, "abc"); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if _, err := s.Get(ctx, "abc"); err == nil {
		t.Error("Get returned a state after Evict")
	}
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	s := session.NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()

	s.Put(ctx, testState("abc"))
	first, _ := s.Get(ctx, "abc")
	first.LastTarget = "mutated"
	second, _ := s.Get(ctx, "abc")
	if second.LastTarget != "Notes" {
		t.Errorf("stored state mutated through a Get result")
	}
}

func newSQLiteStore(t *testing.T, ttl time.Duration) *session.SQLiteStore {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(session.Schema))
	return session.NewSQLiteStore(db, ttl)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newSQLiteStore(t, time.Minute)
	ctx := context.Background()

	if err := s.Put(ctx, testState("abc")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastTarget != "Notes" || !got.RequireConfirm {
		t.Errorf("state = %+v", got)
	}

	// Overwrite through the upsert path.
	got.LastTarget = "Inbox"
	if err := s.Put(ctx, got); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	again, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if again.LastTarget != "Inbox" {
		t.Errorf("LastTarget = %q, want Inbox", again.LastTarget)
	}
}

func TestSQLiteStoreUnknown(t *testing.T) {
	s := newSQLiteStore(t, time.Minute)

	_, err := s.Get(context.Background(), "nope")
	var notFound session.ErrSessionNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLiteStoreSweep(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(session.Schema))
	s := session.NewSQLiteStore(db, time.Minute)
	ctx := context.Background()

	// One fresh row, one row backdated past the TTL.
	if err := s.Put(ctx, testState("fresh")); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-2 * time.Minute).Unix()
	if _, err := db.Exec(
		`INSERT INTO sessions (id, state, updated_at) VALUES ('stale', '{"id":"stale"}', ?)`, stale); err != nil {
		t.Fatal(err)
	}

	n, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d rows, want 1", n)
	}
	if _, err := s.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh session swept: %v", err)
	}
}

func TestSQLiteStoreExpiredGet(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(session.Schema))
	s := session.NewSQLiteStore(db, time.Minute)
	ctx := context.Background()

	stale := time.Now().Add(-2 * time.Minute).Unix()
	if _, err := db.Exec(
		`INSERT INTO sessions (id, state, updated_at) VALUES ('old', '{"id":"old"}', ?)`, stale); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "old"); err == nil {
		t.Error("Get returned an expired session")
	}
}
