package chat

import "time"

// Session kinds and lifecycle states.
const (
	TypeAI         = "ai"
	TypeCounsellor = "counsellor"

	StatusPending = "pending"
	StatusActive  = "active"
	StatusClosed  = "closed"
)

// Session is one conversation thread between a student and either a
// counsellor or the AI companion.
type Session struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"student_id"`
	CounsellorID int64     `json:"counsellor_id,omitempty"`
	ChatType     string    `json:"chat_type"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionSummary is the directory view of a session: the session record plus
// the denormalized fields the counsellor list renders without extra fetches.
type SessionSummary struct {
	Session
	StudentName string    `json:"student_name"`
	LastMessage string    `json:"last_message,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
