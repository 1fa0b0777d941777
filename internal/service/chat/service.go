// Package chat implements conversation state management: session
// find-or-create, transcript persistence and live-event publication.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/Shrey-Sawant/Sonder/internal/model/chat"
	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	"github.com/Shrey-Sawant/Sonder/internal/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStudentRequired = errors.New("student id is required")
	ErrInvalidChatType = errors.New("invalid chat type")
	ErrEmptyMessage    = errors.New("message text is required")
	ErrInvalidSender   = errors.New("invalid sender role")
)

// Publisher delivers an event to each recipient's live feed.
type Publisher interface {
	Publish(ctx context.Context, recipients []int64, evt chat.Event)
}

// Service coordinates the chat store and the live feed.
type Service struct {
	chats store.ChatStore
	users store.UserStore
	feed  Publisher
}

// NewService wires the chat service. feed may be nil in contexts without a
// live hub (the companion service persists AI turns without fan-out).
func NewService(chats store.ChatStore, users store.UserStore, feed Publisher) *Service {
	return &Service{chats: chats, users: users, feed: feed}
}

// FindOrCreateSession reuses the open session for the participants or creates
// one, emitting NEW_SESSION on creation so counsellor directories update
// without a reload.
func (s *Service) FindOrCreateSession(ctx context.Context, sess chat.Session) (chat.Session, error) {
	if sess.StudentID == 0 {
		return chat.Session{}, ErrStudentRequired
	}
	switch sess.ChatType {
	case chat.TypeAI, chat.TypeCounsellor:
	default:
		return chat.Session{}, ErrInvalidChatType
	}
	if sess.Status == "" {
		sess.Status = chat.StatusActive
	}

	created, isNew, err := s.chats.FindOrCreateSession(ctx, sess)
	if err != nil {
		return chat.Session{}, err
	}

	if isNew && s.feed != nil && created.ChatType == chat.TypeCounsellor {
		s.announceSession(ctx, created)
	}
	return created, nil
}

func (s *Service) announceSession(ctx context.Context, sess chat.Session) {
	summary := chat.SessionSummary{Session: sess, UpdatedAt: sess.CreatedAt}
	if student, err := s.users.UserByID(ctx, sess.StudentID); err == nil {
		summary.StudentName = student.Username
	}

	evt, err := chat.NewSessionEvent(summary)
	if err != nil {
		log.Printf("[chat] encode session event: %v", err)
		return
	}
	s.feed.Publish(ctx, participants(sess), evt)
}

// SaveMessage persists a message and emits NEW_MESSAGE to both participants.
// The sender's own feed receives the echo too; clients suppress it.
func (s *Service) SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if strings.TrimSpace(m.Message) == "" {
		return chat.Message{}, ErrEmptyMessage
	}
	switch m.SenderRole {
	case chat.SenderStudent, chat.SenderCounsellor, chat.SenderAI:
	default:
		return chat.Message{}, ErrInvalidSender
	}

	sess, err := s.chats.SessionByID(ctx, m.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return chat.Message{}, ErrSessionNotFound
		}
		return chat.Message{}, err
	}

	saved, err := s.chats.SaveMessage(ctx, m)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return chat.Message{}, ErrSessionNotFound
		}
		return chat.Message{}, err
	}

	if s.feed != nil {
		evt, err := chat.NewMessageEvent(saved)
		if err != nil {
			log.Printf("[chat] encode message event: %v", err)
		} else {
			s.feed.Publish(ctx, participants(sess), evt)
		}
	}
	return saved, nil
}

// Transcript returns the full ordered message history of a session.
func (s *Service) Transcript(ctx context.Context, sessionID int64) ([]chat.Message, error) {
	messages, err := s.chats.Messages(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return messages, nil
}

// SessionsFor lists directory summaries visible to the principal.
func (s *Service) SessionsFor(ctx context.Context, principal user.User) ([]chat.SessionSummary, error) {
	return s.chats.SessionsForUser(ctx, principal)
}

func participants(sess chat.Session) []int64 {
	recipients := []int64{sess.StudentID}
	if sess.CounsellorID != 0 {
		recipients = append(recipients, sess.CounsellorID)
	}
	return recipients
}
