package client

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Directory maintains the counsellor-facing session list: one canonical entry
// per session id, ordered most-recently-active first, kept current by folding
// in live feed events.
//
// Deduplication is keyed by session id, not by student id, so a student with
// more than one open session keeps a directory entry per session.
type Directory struct {
	client *Client

	mu       sync.Mutex
	sessions []Session

	now func() time.Time
}

// NewDirectory returns an empty directory bound to a client.
func NewDirectory(c *Client) *Directory {
	return &Directory{client: c, now: time.Now}
}

// Load fetches all sessions visible to the current principal and replaces
// local state with the normalized result. On failure the prior state is left
// untouched and the error is returned for the caller to surface.
func (d *Directory) Load(ctx context.Context) error {
	sessions, err := d.client.Sessions(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.sessions = Normalize(sessions)
	d.mu.Unlock()
	return nil
}

// Normalize deduplicates a session collection by session id, keeping the
// entry with the latest activity for each id, and sorts by last activity
// descending.
func Normalize(sessions []Session) []Session {
	byID := make(map[int64]Session, len(sessions))
	for _, s := range sessions {
		existing, ok := byID[s.ID]
		if !ok || s.UpdatedAt.After(existing.UpdatedAt) {
			byID[s.ID] = s
		}
	}

	out := make([]Session, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Apply folds one live event into the directory. A NEW_SESSION inserts the
// session if its id is not already present; a NEW_MESSAGE refreshes the
// matching session's preview and bumps it to the top. Malformed payloads and
// unknown event kinds are ignored.
func (d *Directory) Apply(ev Event) {
	switch ev.Type {
	case EventNewSession:
		session, err := ev.SessionPayload()
		if err != nil || session.ID == 0 {
			return
		}
		d.mu.Lock()
		d.sessions = Normalize(append(d.sessions, session))
		d.mu.Unlock()

	case EventNewMessage:
		msg, err := ev.MessagePayload()
		if err != nil || msg.SessionID == 0 {
			return
		}
		d.mu.Lock()
		for i := range d.sessions {
			if d.sessions[i].ID == msg.SessionID {
				d.sessions[i].LastMessage = msg.Message
				d.sessions[i].UpdatedAt = d.now()
				break
			}
		}
		d.sessions = Normalize(d.sessions)
		d.mu.Unlock()
	}
}

// Sessions returns a copy of the current canonical list.
func (d *Directory) Sessions() []Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Session, len(d.sessions))
	copy(out, d.sessions)
	return out
}

// Filter returns the sessions whose student name contains the query,
// case-insensitively. An empty query returns everything.
func (d *Directory) Filter(query string) []Session {
	query = strings.ToLower(strings.TrimSpace(query))
	all := d.Sessions()
	if query == "" {
		return all
	}

	out := all[:0]
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.StudentName), query) {
			out = append(out, s)
		}
	}
	return out
}
