package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Shrey-Sawant/Sonder/internal/hub"
	"github.com/Shrey-Sawant/Sonder/internal/middleware"
	chatmodel "github.com/Shrey-Sawant/Sonder/internal/model/chat"
	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	chatservice "github.com/Shrey-Sawant/Sonder/internal/service/chat"
	"github.com/Shrey-Sawant/Sonder/internal/store/memory"
)

func setupRouter(t *testing.T, principal user.User) (*chi.Mux, *memory.Store, *hub.Hub) {
	t.Helper()
	st := memory.New()
	liveHub := hub.New(nil)
	svc := chatservice.NewService(st, st, liveHub)
	handler := New(svc, liveHub)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithPrincipal(req.Context(), principal)))
		})
	})
	handler.RegisterRoutes(r)
	return r, st, liveHub
}

func seedUsers(t *testing.T, st *memory.Store) (user.User, user.User) {
	t.Helper()
	student := user.User{Email: "maya@uni.edu", Username: "maya", Role: user.RoleStudent}
	if err := st.CreateUser(t.Context(), &student); err != nil {
		t.Fatalf("create student: %v", err)
	}
	counsellor := user.User{Email: "rhea@uni.edu", Username: "rhea", Role: user.RoleCounsellor}
	if err := st.CreateUser(t.Context(), &counsellor); err != nil {
		t.Fatalf("create counsellor: %v", err)
	}
	return student, counsellor
}

func TestCreateSessionFindOrCreate(t *testing.T) {
	r, st, _ := setupRouter(t, user.User{ID: 1, Role: user.RoleStudent})
	student, counsellor := seedUsers(t, st)

	body, _ := json.Marshal(map[string]any{
		"student_id": student.ID, "counsellor_id": counsellor.ID,
		"chat_type": chatmodel.TypeCounsellor, "status": chatmodel.StatusActive,
	})

	var first chatmodel.Session
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/chat/sessions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d: %s", i, resp.Code, resp.Body.String())
		}
		var got chatmodel.Session
		if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode session: %v", err)
		}
		if i == 0 {
			first = got
		} else if got.ID != first.ID {
			t.Fatalf("reopen created a second session: %d vs %d", got.ID, first.ID)
		}
	}
}

func TestCreateSessionRejectsMissingStudent(t *testing.T) {
	r, _, _ := setupRouter(t, user.User{ID: 1, Role: user.RoleStudent})

	body := []byte(`{"counsellor_id": 2, "chat_type": "counsellor"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/sessions", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListSessionsEmptyIsArray(t *testing.T) {
	r, _, _ := setupRouter(t, user.User{ID: 1, Role: user.RoleCounsellor})

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != "[]" {
		t.Fatalf("empty directory must encode as [], got %s", got)
	}
}

func TestSendMessageRoundTrip(t *testing.T) {
	principal := user.User{ID: 1, Role: user.RoleStudent}
	r, st, _ := setupRouter(t, principal)
	student, counsellor := seedUsers(t, st)

	sess, _, err := st.FindOrCreateSession(t.Context(), chatmodel.Session{
		StudentID: student.ID, CounsellorID: counsellor.ID,
		ChatType: chatmodel.TypeCounsellor, Status: chatmodel.StatusActive,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	body, _ := json.Marshal(map[string]any{
		"session_id": sess.ID, "sender_role": chatmodel.SenderStudent, "message": "hello",
	})
	req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var saved chatmodel.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if saved.ID == 0 || saved.CreatedAt.IsZero() {
		t.Fatalf("server did not assign id and timestamp: %+v", saved)
	}

	req = httptest.NewRequest(http.MethodGet, "/chat/messages/1", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", resp.Code)
	}
	var history []chatmodel.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].Message != "hello" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestSendMessageBlankRejected(t *testing.T) {
	r, _, _ := setupRouter(t, user.User{ID: 1, Role: user.RoleStudent})

	body := []byte(`{"session_id": 1, "sender_role": "student", "message": "   "}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMessagesUnknownSessionIs404(t *testing.T) {
	r, _, _ := setupRouter(t, user.User{ID: 1, Role: user.RoleStudent})

	req := httptest.NewRequest(http.MethodGet, "/chat/messages/999", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestFeedRejectsForeignUserID(t *testing.T) {
	r, _, _ := setupRouter(t, user.User{ID: 1, Role: user.RoleStudent})

	req := httptest.NewRequest(http.MethodGet, "/chat/ws/2", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestFeedDeliversPublishedEvents(t *testing.T) {
	principal := user.User{ID: 1, Role: user.RoleStudent}
	r, _, liveHub := setupRouter(t, principal)

	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws/1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && liveHub.Connections(1) == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	evt, err := chatmodel.NewMessageEvent(chatmodel.Message{ID: 5, SessionID: 7, SenderRole: chatmodel.SenderCounsellor, Message: "hi"})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	liveHub.Publish(t.Context(), []int64{1}, evt)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var got chatmodel.Event
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if got.Type != chatmodel.EventNewMessage {
		t.Fatalf("unexpected frame type %q", got.Type)
	}
	msg, err := got.MessagePayload()
	if err != nil || msg.SessionID != 7 {
		t.Fatalf("unexpected payload: %+v err=%v", msg, err)
	}
}
