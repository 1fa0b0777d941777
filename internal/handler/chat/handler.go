package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shrey-Sawant/Sonder/internal/hub"
	"github.com/Shrey-Sawant/Sonder/internal/middleware"
	"github.com/Shrey-Sawant/Sonder/internal/model/chat"
	chatService "github.com/Shrey-Sawant/Sonder/internal/service/chat"
	"github.com/Shrey-Sawant/Sonder/pkg/utils"
)

// Handler exposes session, message and live-feed routes.
type Handler struct {
	chatSvc *chatService.Service
	hub     *hub.Hub
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, h *hub.Hub) *Handler {
	return &Handler{chatSvc: chatSvc, hub: h}
}

// RegisterRoutes mounts the chat routes. All require authentication; the
// websocket route accepts the token as a query parameter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/sessions", h.handleCreateSession)
	r.Get("/chat/sessions", h.handleListSessions)
	r.Get("/chat/messages/{sessionID}", h.handleMessages)
	r.Post("/chat/messages", h.handleSendMessage)
	r.Get("/chat/ws/{userID}", h.handleFeed)
}

// handleCreateSession is find-or-create: reopening an existing conversation
// returns the same session record.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StudentID    int64  `json:"student_id"`
		CounsellorID int64  `json:"counsellor_id"`
		ChatType     string `json:"chat_type"`
		Status       string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.FindOrCreateSession(r.Context(), chat.Session{
		StudentID:    payload.StudentID,
		CounsellorID: payload.CounsellorID,
		ChatType:     payload.ChatType,
		Status:       payload.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, chatService.ErrStudentRequired), errors.Is(err, chatService.ErrInvalidChatType):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "could not create session")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessions, err := h.chatSvc.SessionsFor(r.Context(), principal)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	if sessions == nil {
		sessions = []chat.SessionSummary{}
	}
	utils.RespondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	messages, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "could not load messages")
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID  int64  `json:"session_id"`
		SenderRole string `json:"sender_role"`
		Message    string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.chatSvc.SaveMessage(r.Context(), chat.Message{
		SessionID:  payload.SessionID,
		SenderRole: payload.SenderRole,
		Message:    payload.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, chatService.ErrSessionNotFound):
			utils.RespondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, chatService.ErrEmptyMessage), errors.Is(err, chatService.ErrInvalidSender):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "could not save message")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, saved)
}

// handleFeed upgrades into the live feed. The path id must match the bearer
// principal; one user cannot subscribe to another's events.
func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok || principal.ID != userID {
		utils.RespondError(w, http.StatusForbidden, "feed does not belong to caller")
		return
	}

	h.hub.ServeWS(w, r, userID)
}
