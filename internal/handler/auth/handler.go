package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authService "github.com/Shrey-Sawant/Sonder/internal/service/auth"
	"github.com/Shrey-Sawant/Sonder/internal/store"
	"github.com/Shrey-Sawant/Sonder/pkg/utils"
)

// Handler exposes the identity flows.
type Handler struct {
	authSvc *authService.Service
}

// New creates the auth handler.
func New(authSvc *authService.Service) *Handler {
	return &Handler{authSvc: authSvc}
}

// RegisterRoutes mounts the public identity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/verify-email", h.handleVerifyEmail)
	r.Post("/auth/resend-otp", h.handleResendOTP)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in authService.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.authSvc.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, authService.ErrEmailTaken),
			errors.Is(err, authService.ErrUsernameTaken),
			errors.Is(err, authService.ErrPasswordTooShort),
			errors.Is(err, authService.ErrPasswordTooLong),
			errors.Is(err, authService.ErrInvalidRole):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.authSvc.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, authService.ErrNotVerified):
			utils.RespondError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, authService.ErrInvalidCredentials):
			utils.RespondError(w, http.StatusUnauthorized, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, token)
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authSvc.VerifyEmail(r.Context(), payload.Email, payload.OTP); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "user not found")
		default:
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "email verified successfully"})
}

func (h *Handler) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authSvc.ResendOTP(r.Context(), payload.Email); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, authService.ErrAlreadyVerified):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "could not resend code")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "otp resent successfully"})
}
