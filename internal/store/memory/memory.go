// Package memory implements store.Store with mutex-guarded maps. It backs
// tests and DSN-less local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shrey-Sawant/Sonder/internal/model/chat"
	"github.com/Shrey-Sawant/Sonder/internal/model/rating"
	"github.com/Shrey-Sawant/Sonder/internal/model/schedule"
	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	"github.com/Shrey-Sawant/Sonder/internal/store"
)

// Store holds all records in memory.
type Store struct {
	mu sync.RWMutex

	nextUserID    int64
	nextSessionID int64
	nextMessageID int64
	nextRequestID int64
	nextRatingID  int64

	users    map[int64]user.User
	sessions map[int64]chat.Session
	messages map[int64][]chat.Message
	requests map[int64]schedule.Request
	ratings  map[int64]rating.Rating
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[int64]user.User),
		sessions: make(map[int64]chat.Session),
		messages: make(map[int64][]chat.Message),
		requests: make(map[int64]schedule.Request),
		ratings:  make(map[int64]rating.Rating),
	}
}

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return store.ErrDuplicate
		}
	}

	s.nextUserID++
	u.ID = s.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UserByID(_ context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return user.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, store.ErrNotFound
}

func (s *Store) UserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, store.ErrNotFound
}

func (s *Store) UsersByRole(_ context.Context, role string) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		if role == "" || u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) MarkVerified(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u.IsVerified = true
			s.users[id] = u
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) FindOrCreateSession(_ context.Context, sess chat.Session) (chat.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sessions {
		if existing.StudentID == sess.StudentID &&
			existing.CounsellorID == sess.CounsellorID &&
			existing.ChatType == sess.ChatType &&
			existing.Status != chat.StatusClosed {
			return existing, false, nil
		}
	}

	s.nextSessionID++
	sess.ID = s.nextSessionID
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	s.sessions[sess.ID] = sess
	s.messages[sess.ID] = make([]chat.Message, 0, 16)
	return sess, true, nil
}

func (s *Store) SessionByID(_ context.Context, id int64) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (s *Store) SessionsForUser(_ context.Context, principal user.User) ([]chat.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summaries []chat.SessionSummary
	for _, sess := range s.sessions {
		switch principal.Role {
		case user.RoleStudent:
			if sess.StudentID != principal.ID {
				continue
			}
		case user.RoleCounsellor:
			if sess.CounsellorID != principal.ID {
				continue
			}
		}
		summaries = append(summaries, s.summarize(sess))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// summarize denormalizes the directory fields. Callers hold s.mu.
func (s *Store) summarize(sess chat.Session) chat.SessionSummary {
	summary := chat.SessionSummary{Session: sess, UpdatedAt: sess.CreatedAt}
	if student, ok := s.users[sess.StudentID]; ok {
		summary.StudentName = student.Username
	}
	if msgs := s.messages[sess.ID]; len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		summary.LastMessage = last.Message
		summary.UpdatedAt = last.CreatedAt
	}
	return summary
}

func (s *Store) SaveMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[m.SessionID]; !ok {
		return chat.Message{}, store.ErrNotFound
	}

	s.nextMessageID++
	m.ID = s.nextMessageID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.messages[m.SessionID] = append(s.messages[m.SessionID], m)
	return m, nil
}

func (s *Store) Messages(_ context.Context, sessionID int64) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.messages[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}

	copied := make([]chat.Message, len(msgs))
	copy(copied, msgs)
	return copied, nil
}

func (s *Store) CreateRequest(_ context.Context, r schedule.Request) (schedule.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRequestID++
	r.ID = s.nextRequestID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.requests[r.ID] = r
	return r, nil
}

func (s *Store) RequestsForUser(_ context.Context, principal user.User) ([]schedule.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var requests []schedule.Request
	for _, r := range s.requests {
		switch principal.Role {
		case user.RoleStudent:
			if r.StudentID != principal.ID {
				continue
			}
		case user.RoleCounsellor:
			if r.CounsellorID != principal.ID {
				continue
			}
		}
		requests = append(requests, r)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].ScheduledTime.Before(requests[j].ScheduledTime)
	})
	return requests, nil
}

func (s *Store) UpdateRequestStatus(_ context.Context, id int64, status string) (schedule.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return schedule.Request{}, store.ErrNotFound
	}
	r.Status = status
	s.requests[id] = r
	return r, nil
}

func (s *Store) BusySlots(_ context.Context, counsellorID int64, day time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	y, m, d := day.Date()
	var slots []string
	for _, r := range s.requests {
		if r.CounsellorID != counsellorID || r.Status == schedule.StatusDeclined {
			continue
		}
		ry, rm, rd := r.ScheduledTime.Date()
		if ry == y && rm == m && rd == d {
			slots = append(slots, r.ScheduledTime.Format("15:04"))
		}
	}
	sort.Strings(slots)
	return slots, nil
}

func (s *Store) CreateRating(_ context.Context, r rating.Rating) (rating.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.ratings {
		if existing.StudentID == r.StudentID && existing.CounsellorID == r.CounsellorID {
			return rating.Rating{}, store.ErrDuplicate
		}
	}

	s.nextRatingID++
	r.ID = s.nextRatingID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.ratings[r.ID] = r
	return r, nil
}

func (s *Store) RatingsForCounsellor(_ context.Context, counsellorID int64) ([]rating.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ratings []rating.Rating
	for _, r := range s.ratings {
		if r.CounsellorID == counsellorID {
			ratings = append(ratings, r)
		}
	}
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].ID < ratings[j].ID })
	return ratings, nil
}
