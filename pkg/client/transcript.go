package client

import (
	"context"
	"strings"
	"sync"
)

// Transcript holds the message history for one open conversation. It owns its
// own message list, folds in live events scoped to its session, and manages
// the draft input with optimistic clear-on-send.
type Transcript struct {
	client     *Client
	session    Session
	viewerRole string

	mu       sync.Mutex
	messages []Message
	input    string
	closed   bool

	feed *Feed
	sub  <-chan Event
}

// OpenTranscript resolves the session for a (student, counsellor) pair via
// find-or-create and loads its full history. viewerRole is the role of the
// user looking at the transcript and drives self-echo suppression.
func (c *Client) OpenTranscript(ctx context.Context, studentID, counsellorID int64, viewerRole string) (*Transcript, error) {
	session, err := c.FindOrCreateSession(ctx, studentID, counsellorID, TypeCounsellor)
	if err != nil {
		return nil, err
	}

	history, err := c.Messages(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	return &Transcript{
		client:     c,
		session:    session,
		viewerRole: viewerRole,
		messages:   history,
	}, nil
}

// Session returns the resolved session record.
func (t *Transcript) Session() Session {
	return t.session
}

// Attach subscribes the transcript to a shared live feed. The feed is not
// owned: Close unsubscribes but never releases or closes the feed itself.
func (t *Transcript) Attach(f *Feed) {
	t.mu.Lock()
	if t.closed || t.feed != nil {
		t.mu.Unlock()
		return
	}
	ch := f.Subscribe()
	t.feed = f
	t.sub = ch
	t.mu.Unlock()

	go func() {
		for ev := range ch {
			t.Apply(ev)
		}
	}()
}

// Apply folds one live event into the transcript. Only NEW_MESSAGE events for
// this transcript's session are considered; events from the viewer's own role
// are dropped since the sender already appended its copy on send; an id check
// backs that up against replays.
func (t *Transcript) Apply(ev Event) {
	if ev.Type != EventNewMessage {
		return
	}
	msg, err := ev.MessagePayload()
	if err != nil {
		return
	}
	if msg.SessionID != t.session.ID {
		return
	}
	if msg.SenderRole == t.viewerRole {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if msg.ID != 0 && t.containsLocked(msg.ID) {
		return
	}
	t.messages = append(t.messages, msg)
}

func (t *Transcript) containsLocked(id int64) bool {
	for _, m := range t.messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

// SetInput replaces the draft input text.
func (t *Transcript) SetInput(text string) {
	t.mu.Lock()
	t.input = text
	t.mu.Unlock()
}

// Input returns the current draft input text.
func (t *Transcript) Input() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input
}

// Send posts the current draft. Blank drafts are a no-op with no network
// call. The input clears optimistically before the request; on failure it is
// restored so the user can retry, and since nothing was appended
// speculatively the message list needs no rollback. On success the
// server-confirmed record is appended, collapsing with any live echo that
// carries the same id.
func (t *Transcript) Send(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	text := strings.TrimSpace(t.input)
	if text == "" {
		t.mu.Unlock()
		return nil
	}
	draft := t.input
	t.input = ""
	t.mu.Unlock()

	confirmed, err := t.client.SendMessage(ctx, t.session.ID, t.viewerRole, text)
	if err != nil {
		t.mu.Lock()
		if !t.closed {
			t.input = draft
		}
		t.mu.Unlock()
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	if confirmed.ID != 0 && t.containsLocked(confirmed.ID) {
		return nil
	}
	t.messages = append(t.messages, confirmed)
	return nil
}

// Messages returns a copy of the transcript in creation order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Close marks the transcript finished. Late responses and events arriving
// after Close are discarded, and the feed subscription, if any, is dropped.
func (t *Transcript) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	feed, sub := t.feed, t.sub
	t.feed, t.sub = nil, nil
	t.mu.Unlock()

	if feed != nil {
		feed.Unsubscribe(sub)
	}
}
