package companion

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shrey-Sawant/Sonder/internal/middleware"
	companionService "github.com/Shrey-Sawant/Sonder/internal/service/companion"
	"github.com/Shrey-Sawant/Sonder/pkg/utils"
)

// Handler exposes the AI companion route. companionSvc may be nil when the
// model credentials are not configured.
type Handler struct {
	companionSvc *companionService.Service
}

// New creates the companion handler.
func New(companionSvc *companionService.Service) *Handler {
	return &Handler{companionSvc: companionSvc}
}

// RegisterRoutes mounts the chatbot route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chatbot/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.companionSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "companion unavailable")
		return
	}

	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.companionSvc.Chat(r.Context(), principal, payload.Message)
	if err != nil {
		if errors.Is(err, companionService.ErrEmptyMessage) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[companion] chat failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "companion reply failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
