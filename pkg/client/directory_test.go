package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func mustEvent(t *testing.T, kind string, payload any) Event {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Event{Type: kind, Payload: data}
}

func TestNormalizeDeduplicatesAndSorts(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	sessions := []Session{
		{ID: 1, StudentName: "ana", UpdatedAt: base},
		{ID: 2, StudentName: "ben", UpdatedAt: base.Add(2 * time.Hour)},
		{ID: 1, StudentName: "ana", UpdatedAt: base.Add(time.Hour)},
		{ID: 3, StudentName: "cam", UpdatedAt: base.Add(30 * time.Minute)},
	}

	got := Normalize(sessions)

	if len(got) != 3 {
		t.Fatalf("expected 3 sessions after dedup, got %d", len(got))
	}
	wantOrder := []int64{2, 1, 3}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Fatalf("position %d: got session %d, want %d", i, got[i].ID, want)
		}
	}
	// the duplicate with the later activity wins
	if !got[1].UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("kept stale duplicate for session 1: %v", got[1].UpdatedAt)
	}
}

func TestDirectoryLoadOrdersByRecency(t *testing.T) {
	t1 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Session{
			{ID: 10, UpdatedAt: t1},
			{ID: 20, UpdatedAt: t2},
			{ID: 30, UpdatedAt: t3},
		})
	}))
	defer srv.Close()

	d := NewDirectory(New(srv.URL, "token"))
	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("Load err: %v", err)
	}

	got := d.Sessions()
	wantOrder := []int64{30, 20, 10}
	if len(got) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(got))
	}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Fatalf("position %d: got session %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestDirectoryLoadFailureKeepsPriorState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDirectory(New(srv.URL, "token"))
	d.sessions = []Session{{ID: 5, StudentName: "prior"}}

	if err := d.Load(context.Background()); err == nil {
		t.Fatal("expected error from failed load")
	}

	got := d.Sessions()
	if len(got) != 1 || got[0].ID != 5 {
		t.Fatalf("prior state was clobbered: %+v", got)
	}
}

func TestDirectoryApplyNewSession(t *testing.T) {
	d := NewDirectory(nil)
	d.sessions = []Session{{ID: 1, UpdatedAt: time.Unix(100, 0)}}

	d.Apply(mustEvent(t, EventNewSession, Session{ID: 2, UpdatedAt: time.Unix(200, 0)}))
	if len(d.Sessions()) != 2 {
		t.Fatalf("new session not inserted: %+v", d.Sessions())
	}

	// same id again is a no-op
	d.Apply(mustEvent(t, EventNewSession, Session{ID: 2, UpdatedAt: time.Unix(200, 0)}))
	if len(d.Sessions()) != 2 {
		t.Fatalf("duplicate session was inserted: %+v", d.Sessions())
	}
}

func TestDirectoryApplyNewMessageBumpsSession(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	d := NewDirectory(nil)
	d.now = func() time.Time { return now }
	d.sessions = []Session{
		{ID: 1, UpdatedAt: now.Add(-time.Minute)},
		{ID: 2, UpdatedAt: now.Add(-time.Hour)},
	}

	d.Apply(mustEvent(t, EventNewMessage, Message{ID: 7, SessionID: 2, Message: "hello there"}))

	got := d.Sessions()
	if got[0].ID != 2 {
		t.Fatalf("session 2 not bumped to top: %+v", got)
	}
	if got[0].LastMessage != "hello there" {
		t.Fatalf("preview not updated: %q", got[0].LastMessage)
	}
	if !got[0].UpdatedAt.Equal(now) {
		t.Fatalf("activity timestamp not refreshed: %v", got[0].UpdatedAt)
	}
}

func TestDirectoryIgnoresMalformedEvents(t *testing.T) {
	d := NewDirectory(nil)
	d.sessions = []Session{{ID: 1}}

	d.Apply(Event{Type: EventNewSession, Payload: []byte(`{not json`)})
	d.Apply(Event{Type: EventNewMessage, Payload: []byte(`"just a string"`)})
	d.Apply(mustEvent(t, "UNKNOWN_KIND", Session{ID: 9}))

	if len(d.Sessions()) != 1 {
		t.Fatalf("malformed events altered state: %+v", d.Sessions())
	}
}

func TestDirectoryFilter(t *testing.T) {
	d := NewDirectory(nil)
	d.sessions = []Session{
		{ID: 1, StudentName: "Alice Johnson"},
		{ID: 2, StudentName: "Bob Smith"},
		{ID: 3, StudentName: "alison"},
	}

	got := d.Filter("ali")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "ali", len(got))
	}
	if all := d.Filter("  "); len(all) != 3 {
		t.Fatalf("blank query should return all sessions, got %d", len(all))
	}
	if none := d.Filter("zzz"); len(none) != 0 {
		t.Fatalf("expected no matches, got %d", len(none))
	}
}
