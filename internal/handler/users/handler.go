package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shrey-Sawant/Sonder/internal/middleware"
	"github.com/Shrey-Sawant/Sonder/internal/store"
	"github.com/Shrey-Sawant/Sonder/pkg/utils"
)

// Handler exposes account lookups.
type Handler struct {
	users store.UserStore
}

// New creates the users handler.
func New(users store.UserStore) *Handler {
	return &Handler{users: users}
}

// RegisterRoutes mounts the user routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users/me", h.handleMe)
	r.Get("/users/", h.handleList)
	r.Get("/users", h.handleList)
}

// handleMe resolves the bearer principal to its full account record.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.users.UserByID(r.Context(), principal.ID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "user not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, u)
}

// handleList lists accounts, optionally filtered by role. Students use
// ?role=counsellor for counsellor discovery.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	users, err := h.users.UsersByRole(r.Context(), role)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not list users")
		return
	}
	utils.RespondJSON(w, http.StatusOK, users)
}
