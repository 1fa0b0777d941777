// Package client is the Go SDK for the Sonder API: a thin REST wrapper plus
// the stateful pieces a frontend needs — a session directory, a live event
// feed, a transcript with optimistic send, and a booking flow.
package client

import (
	"encoding/json"
	"time"
)

// Session kinds and lifecycle states, mirroring the server contract.
const (
	TypeAI         = "ai"
	TypeCounsellor = "counsellor"

	StatusPending = "pending"
	StatusActive  = "active"
	StatusClosed  = "closed"
)

// Sender roles carried on a message.
const (
	RoleStudent    = "student"
	RoleCounsellor = "counsellor"
	RoleAI         = "ai"
)

// Session is one conversation thread between a student and a counsellor or
// the AI companion, as returned by the sessions endpoints.
type Session struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"student_id"`
	CounsellorID int64     `json:"counsellor_id,omitempty"`
	ChatType     string    `json:"chat_type"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	StudentName  string    `json:"student_name,omitempty"`
	LastMessage  string    `json:"last_message,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Message is a single transcript entry. ID is zero only for entries that have
// not been persisted yet.
type Message struct {
	ID         int64     `json:"id"`
	SessionID  int64     `json:"session_id"`
	SenderRole string    `json:"sender_role"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// User is the public profile shape returned by the users endpoints.
type User struct {
	ID            int64   `json:"id"`
	Email         string  `json:"email"`
	Username      string  `json:"username"`
	Role          string  `json:"role"`
	Phone         string  `json:"phone,omitempty"`
	Experience    int     `json:"experience,omitempty"`
	Certification string  `json:"certification,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	IsAvailable   bool    `json:"is_available"`
	IsVerified    bool    `json:"is_verified"`
}

// Booking is a schedule request between a student and a counsellor.
type Booking struct {
	ID            int64     `json:"id"`
	StudentID     int64     `json:"student_id"`
	CounsellorID  int64     `json:"counsellor_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Event kinds delivered over the live feed.
const (
	EventNewSession = "NEW_SESSION"
	EventNewMessage = "NEW_MESSAGE"
)

// Event is a live feed frame: a tagged union whose payload is a Session for
// NEW_SESSION or a Message for NEW_MESSAGE.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SessionPayload decodes the payload of a NEW_SESSION event.
func (e Event) SessionPayload() (Session, error) {
	var s Session
	err := json.Unmarshal(e.Payload, &s)
	return s, err
}

// MessagePayload decodes the payload of a NEW_MESSAGE event.
func (e Event) MessagePayload() (Message, error) {
	var m Message
	err := json.Unmarshal(e.Payload, &m)
	return m, err
}
