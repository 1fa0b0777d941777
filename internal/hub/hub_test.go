package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Shrey-Sawant/Sonder/internal/model/chat"
)

func testConnection(userID int64, buffer int) *connection {
	return &connection{id: "test-conn", userID: userID, send: make(chan []byte, buffer)}
}

func TestPublishDeliversToRecipientsOnly(t *testing.T) {
	h := New(nil)
	student := testConnection(1, 4)
	counsellor := testConnection(2, 4)
	bystander := testConnection(3, 4)
	h.register(student)
	h.register(counsellor)
	h.register(bystander)

	evt, err := chat.NewMessageEvent(chat.Message{ID: 5, SessionID: 7, SenderRole: chat.SenderStudent, Message: "hi"})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	h.Publish(context.Background(), []int64{1, 2}, evt)

	for _, c := range []*connection{student, counsellor} {
		select {
		case frame := <-c.send:
			var got chat.Event
			if err := json.Unmarshal(frame, &got); err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			if got.Type != chat.EventNewMessage {
				t.Fatalf("unexpected frame type %q", got.Type)
			}
		default:
			t.Fatalf("user %d received nothing", c.userID)
		}
	}

	select {
	case <-bystander.send:
		t.Fatal("bystander received a frame addressed to others")
	default:
	}
}

func TestPublishFansOutToEveryFeedOfAUser(t *testing.T) {
	h := New(nil)
	tabOne := testConnection(1, 4)
	tabTwo := testConnection(1, 4)
	h.register(tabOne)
	h.register(tabTwo)

	if got := h.Connections(1); got != 2 {
		t.Fatalf("expected 2 open feeds, got %d", got)
	}

	evt, err := chat.NewSessionEvent(chat.SessionSummary{Session: chat.Session{ID: 9, StudentID: 1}})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	h.Publish(context.Background(), []int64{1}, evt)

	for i, c := range []*connection{tabOne, tabTwo} {
		select {
		case <-c.send:
		default:
			t.Fatalf("feed %d received nothing", i)
		}
	}
}

func TestPublishDropsFramesForSlowConsumers(t *testing.T) {
	h := New(nil)
	slow := testConnection(1, 1)
	h.register(slow)

	evt, err := chat.NewMessageEvent(chat.Message{ID: 1, SessionID: 7, Message: "a"})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	// second publish finds the buffer full and must not block
	h.Publish(context.Background(), []int64{1}, evt)
	h.Publish(context.Background(), []int64{1}, evt)

	if got := len(slow.send); got != 1 {
		t.Fatalf("expected 1 buffered frame, got %d", got)
	}
}

func TestUnregisterClosesFeed(t *testing.T) {
	h := New(nil)
	c := testConnection(1, 4)
	h.register(c)
	h.unregister(c)

	if got := h.Connections(1); got != 0 {
		t.Fatalf("expected 0 feeds after unregister, got %d", got)
	}
	if _, ok := <-c.send; ok {
		t.Fatal("send channel not closed on unregister")
	}

	// double unregister is a no-op
	h.unregister(c)
}
