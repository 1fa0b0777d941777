package rating

import "time"

// Rating is a student's 1-5 review of a counsellor. One rating per
// (student, counsellor) pair.
type Rating struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"student_id"`
	CounsellorID int64     `json:"counsellor_id"`
	Rating       int       `json:"rating"`
	Review       string    `json:"review,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
