package chat

import "time"

// Sender roles carried on a message.
const (
	SenderStudent    = "student"
	SenderCounsellor = "counsellor"
	SenderAI         = "ai"
)

// Message is a single transcript entry.
type Message struct {
	ID         int64     `json:"id"`
	SessionID  int64     `json:"session_id"`
	SenderRole string    `json:"sender_role"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
