package chat

import "encoding/json"

// Event kinds delivered over the live feed.
const (
	EventNewSession = "NEW_SESSION"
	EventNewMessage = "NEW_MESSAGE"
)

// Event is the frame shape of the live feed: a tagged union whose payload is
// a SessionSummary for NEW_SESSION or a Message for NEW_MESSAGE.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewSessionEvent wraps a session summary for the feed.
func NewSessionEvent(s SessionSummary) (Event, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventNewSession, Payload: payload}, nil
}

// NewMessageEvent wraps a persisted message for the feed.
func NewMessageEvent(m Message) (Event, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventNewMessage, Payload: payload}, nil
}

// SessionPayload decodes the payload of a NEW_SESSION event.
func (e Event) SessionPayload() (SessionSummary, error) {
	var s SessionSummary
	err := json.Unmarshal(e.Payload, &s)
	return s, err
}

// MessagePayload decodes the payload of a NEW_MESSAGE event.
func (e Event) MessagePayload() (Message, error) {
	var m Message
	err := json.Unmarshal(e.Payload, &m)
	return m, err
}
