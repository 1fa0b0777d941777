package schedule

import "time"

// Booking request states.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Request is a student's booking request against a counsellor's calendar.
type Request struct {
	ID            int64     `json:"id"`
	StudentID     int64     `json:"student_id"`
	CounsellorID  int64     `json:"counsellor_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidStatus reports whether s is a state a booking may transition to.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}
