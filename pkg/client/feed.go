package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Feed is the live update channel for one user. A Feed is shared: acquiring
// it twice for the same user returns the same instance with its reference
// count bumped, so an accidental double-open never produces a second socket.
// Consumers fan in through Subscribe and must Release when done; the
// underlying connection closes when the last reference is released.
//
// There is no automatic reconnect. When the connection drops, subscriber
// channels are closed and the next AcquireFeed dials fresh.
type Feed struct {
	userID   int64
	conn     *websocket.Conn
	registry *feedRegistry

	mu          sync.Mutex
	refs        int
	closed      bool
	subscribers map[chan Event]struct{}
}

type feedRegistry struct {
	mu    sync.Mutex
	feeds map[int64]*Feed
}

// AcquireFeed returns the open live feed for userID, dialing a new connection
// only if none is active. Every successful call must be paired with Release.
func (c *Client) AcquireFeed(ctx context.Context, userID int64) (*Feed, error) {
	c.feedsOnce.Do(func() {
		c.feeds = &feedRegistry{feeds: make(map[int64]*Feed)}
	})

	c.feeds.mu.Lock()
	defer c.feeds.mu.Unlock()

	if f, ok := c.feeds.feeds[userID]; ok && f.acquire() {
		return f, nil
	}

	conn, err := c.dialFeed(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := &Feed{
		userID:      userID,
		conn:        conn,
		registry:    c.feeds,
		refs:        1,
		subscribers: make(map[chan Event]struct{}),
	}
	c.feeds.feeds[userID] = f
	go f.readLoop()
	return f, nil
}

func (c *Client) dialFeed(ctx context.Context, userID int64) (*websocket.Conn, error) {
	wsBase := c.BaseURL
	switch {
	case strings.HasPrefix(wsBase, "https://"):
		wsBase = "wss://" + strings.TrimPrefix(wsBase, "https://")
	case strings.HasPrefix(wsBase, "http://"):
		wsBase = "ws://" + strings.TrimPrefix(wsBase, "http://")
	}

	endpoint := fmt.Sprintf("%s/chat/ws/%d", wsBase, userID)
	if c.Token != "" {
		endpoint += "?token=" + url.QueryEscape(c.Token)
	}

	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("dial live feed: %w", err)
	}
	return conn, nil
}

// acquire bumps the reference count; it fails when the feed already closed,
// signalling the caller to dial a replacement.
func (f *Feed) acquire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.refs++
	return true
}

// Release drops one reference. The connection closes when the count reaches
// zero; subsequent AcquireFeed calls open a new one.
func (f *Feed) Release() {
	f.mu.Lock()
	f.refs--
	shouldClose := f.refs <= 0 && !f.closed
	if shouldClose {
		f.closed = true
	}
	f.mu.Unlock()

	if shouldClose {
		f.registry.remove(f)
		f.conn.Close()
	}
}

// Subscribe registers a new event channel. The channel is closed when the
// feed shuts down. Slow subscribers have events dropped rather than blocking
// delivery to the rest.
func (f *Feed) Subscribe() <-chan Event {
	ch := make(chan Event, 32)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch
	}
	f.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a channel previously returned by Subscribe.
func (f *Feed) Unsubscribe(ch <-chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subscribers {
		if sub == ch {
			delete(f.subscribers, sub)
			close(sub)
			return
		}
	}
}

func (f *Feed) readLoop() {
	defer f.shutdown()

	for {
		_, data, err := f.conn.ReadMessage()
		if err != nil {
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if ev.Type != EventNewSession && ev.Type != EventNewMessage {
			continue
		}
		f.broadcast(ev)
	}
}

func (f *Feed) broadcast(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subscribers {
		select {
		case sub <- ev:
		default:
		}
	}
}

// shutdown tears the feed down after the read loop exits, whether from
// Release closing the connection or from the server going away.
func (f *Feed) shutdown() {
	f.mu.Lock()
	f.closed = true
	subs := f.subscribers
	f.subscribers = make(map[chan Event]struct{})
	f.mu.Unlock()

	f.registry.remove(f)
	f.conn.Close()
	for sub := range subs {
		close(sub)
	}
}

func (r *feedRegistry) remove(f *Feed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.feeds[f.userID] == f {
		delete(r.feeds, f.userID)
	}
}
