package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shrey-Sawant/Sonder/internal/model/chat"
	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	"github.com/Shrey-Sawant/Sonder/internal/store"
	"github.com/Shrey-Sawant/Sonder/internal/store/memory"
)

func TestFindOrCreateSessionSkipsClosedSessions(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	closed, isNew, err := st.FindOrCreateSession(ctx, chat.Session{
		StudentID: 1, CounsellorID: 2, ChatType: chat.TypeCounsellor, Status: chat.StatusClosed,
	})
	if err != nil || !isNew {
		t.Fatalf("seed session: isNew=%v err=%v", isNew, err)
	}

	fresh, isNew, err := st.FindOrCreateSession(ctx, chat.Session{
		StudentID: 1, CounsellorID: 2, ChatType: chat.TypeCounsellor, Status: chat.StatusActive,
	})
	if err != nil {
		t.Fatalf("FindOrCreateSession err: %v", err)
	}
	if !isNew || fresh.ID == closed.ID {
		t.Fatalf("closed session was reused: isNew=%v id=%d", isNew, fresh.ID)
	}
}

func TestSessionsForUserSummaries(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	student := user.User{Email: "maya@uni.edu", Username: "maya", Role: user.RoleStudent}
	if err := st.CreateUser(ctx, &student); err != nil {
		t.Fatalf("create student: %v", err)
	}
	counsellor := user.User{Email: "rhea@uni.edu", Username: "rhea", Role: user.RoleCounsellor}
	if err := st.CreateUser(ctx, &counsellor); err != nil {
		t.Fatalf("create counsellor: %v", err)
	}

	sess, _, err := st.FindOrCreateSession(ctx, chat.Session{
		StudentID: student.ID, CounsellorID: counsellor.ID, ChatType: chat.TypeCounsellor, Status: chat.StatusActive,
	})
	if err != nil {
		t.Fatalf("FindOrCreateSession err: %v", err)
	}

	lastAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if _, err := st.SaveMessage(ctx, chat.Message{SessionID: sess.ID, SenderRole: chat.SenderStudent, Message: "first"}); err != nil {
		t.Fatalf("SaveMessage err: %v", err)
	}
	if _, err := st.SaveMessage(ctx, chat.Message{
		SessionID: sess.ID, SenderRole: chat.SenderCounsellor, Message: "latest", CreatedAt: lastAt,
	}); err != nil {
		t.Fatalf("SaveMessage err: %v", err)
	}

	summaries, err := st.SessionsForUser(ctx, counsellor)
	if err != nil {
		t.Fatalf("SessionsForUser err: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	got := summaries[0]
	if got.StudentName != "maya" {
		t.Fatalf("student name not denormalized: %+v", got)
	}
	if got.LastMessage != "latest" {
		t.Fatalf("preview is not the newest message: %q", got.LastMessage)
	}
	if !got.UpdatedAt.Equal(lastAt) {
		t.Fatalf("activity timestamp = %v, want %v", got.UpdatedAt, lastAt)
	}

	// the other student sees nothing
	other := user.User{ID: 999, Role: user.RoleStudent}
	none, err := st.SessionsForUser(ctx, other)
	if err != nil {
		t.Fatalf("SessionsForUser err: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("foreign sessions leaked: %+v", none)
	}
}

func TestMessagesUnknownSession(t *testing.T) {
	st := memory.New()
	if _, err := st.Messages(context.Background(), 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	first := user.User{Email: "maya@uni.edu", Username: "maya", Role: user.RoleStudent}
	if err := st.CreateUser(ctx, &first); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := user.User{Email: "maya@uni.edu", Username: "other", Role: user.RoleStudent}
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for email, got %v", err)
	}
	dup = user.User{Email: "other@uni.edu", Username: "maya", Role: user.RoleStudent}
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for username, got %v", err)
	}
}
