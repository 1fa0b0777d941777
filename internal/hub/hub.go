// Package hub fans live events out to websocket feeds. Each authenticated
// user holds at most one feed per browser tab; the hub keys open connections
// by user id and, when Redis is configured, relays events between instances
// so a recipient connected elsewhere still receives them.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Shrey-Sawant/Sonder/internal/model/chat"
)

const eventChannel = "sonder:live-events"

// envelope is the wire form relayed through Redis: the event plus the user
// ids it is addressed to.
type envelope struct {
	Recipients []int64    `json:"recipients"`
	Event      chat.Event `json:"event"`
}

// Hub routes events to the local connections of their recipients.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]map[*connection]struct{}

	redis *redis.Client
}

// New creates a hub. redisClient may be nil for single-instance deployments;
// delivery is then local only.
func New(redisClient *redis.Client) *Hub {
	return &Hub{
		conns: make(map[int64]map[*connection]struct{}),
		redis: redisClient,
	}
}

// Publish addresses an event to the given users. With Redis configured the
// event round-trips through the shared channel so every instance delivers to
// its own sockets; otherwise it is delivered directly.
func (h *Hub) Publish(ctx context.Context, recipients []int64, evt chat.Event) {
	env := envelope{Recipients: recipients, Event: evt}

	if h.redis != nil {
		payload, err := json.Marshal(env)
		if err != nil {
			log.Printf("[hub] marshal envelope: %v", err)
			return
		}
		if err := h.redis.Publish(ctx, eventChannel, payload).Err(); err != nil {
			log.Printf("[hub] redis publish failed, delivering locally: %v", err)
			h.deliver(env)
		}
		return
	}

	h.deliver(env)
}

// SubscribeRedis consumes relayed envelopes until ctx is cancelled. Call in a
// goroutine when Redis is configured.
func (h *Hub) SubscribeRedis(ctx context.Context) {
	if h.redis == nil {
		return
	}

	pubsub := h.redis.Subscribe(ctx, eventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("[hub] dropping malformed envelope: %v", err)
				continue
			}
			h.deliver(env)
		}
	}
}

func (h *Hub) deliver(env envelope) {
	frame, err := json.Marshal(env.Event)
	if err != nil {
		log.Printf("[hub] marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range env.Recipients {
		for conn := range h.conns[userID] {
			select {
			case conn.send <- frame:
			default:
				// Slow consumer; drop the frame rather than block delivery.
				log.Printf("[hub] dropping frame for user=%d conn=%s", userID, conn.id)
			}
		}
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.userID] == nil {
		h.conns[c.userID] = make(map[*connection]struct{})
	}
	h.conns[c.userID][c] = struct{}{}
	log.Printf("[hub] feed connected user=%d conn=%s", c.userID, c.id)
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[c.userID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(h.conns, c.userID)
			}
			log.Printf("[hub] feed disconnected user=%d conn=%s", c.userID, c.id)
		}
	}
}

// Connections reports the number of open feeds for a user.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
