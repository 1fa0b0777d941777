// Package store defines the persistence boundary of the service. Two
// implementations exist: store/postgres for real deployments and store/memory
// for tests and DSN-less local runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Shrey-Sawant/Sonder/internal/model/chat"
	"github.com/Shrey-Sawant/Sonder/internal/model/rating"
	"github.com/Shrey-Sawant/Sonder/internal/model/schedule"
	"github.com/Shrey-Sawant/Sonder/internal/model/user"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	UserByID(ctx context.Context, id int64) (user.User, error)
	UserByEmail(ctx context.Context, email string) (user.User, error)
	UserByUsername(ctx context.Context, username string) (user.User, error)
	// UsersByRole lists accounts with the given role; an empty role lists all.
	UsersByRole(ctx context.Context, role string) ([]user.User, error)
	MarkVerified(ctx context.Context, email string) error
}

// ChatStore persists sessions and messages.
type ChatStore interface {
	// FindOrCreateSession reuses a non-closed session matching
	// (student, counsellor, chat type) or creates one. The returned bool is
	// true when a new session was created.
	FindOrCreateSession(ctx context.Context, s chat.Session) (chat.Session, bool, error)
	SessionByID(ctx context.Context, id int64) (chat.Session, error)
	// SessionsForUser returns directory summaries scoped to the principal's
	// role, most recent activity first.
	SessionsForUser(ctx context.Context, principal user.User) ([]chat.SessionSummary, error)
	SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error)
	// Messages returns the full transcript ordered by creation time ascending.
	Messages(ctx context.Context, sessionID int64) ([]chat.Message, error)
}

// ScheduleStore persists booking requests.
type ScheduleStore interface {
	CreateRequest(ctx context.Context, r schedule.Request) (schedule.Request, error)
	RequestsForUser(ctx context.Context, principal user.User) ([]schedule.Request, error)
	UpdateRequestStatus(ctx context.Context, id int64, status string) (schedule.Request, error)
	// BusySlots returns "HH:MM" start times already taken for the counsellor
	// on the given calendar day. Declined bookings do not occupy a slot.
	BusySlots(ctx context.Context, counsellorID int64, day time.Time) ([]string, error)
}

// RatingStore persists counsellor reviews.
type RatingStore interface {
	CreateRating(ctx context.Context, r rating.Rating) (rating.Rating, error)
	RatingsForCounsellor(ctx context.Context, counsellorID int64) ([]rating.Rating, error)
}

// Store is the full persistence surface the services consume.
type Store interface {
	UserStore
	ChatStore
	ScheduleStore
	RatingStore
}
