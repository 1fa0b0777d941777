package rating

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shrey-Sawant/Sonder/internal/middleware"
	"github.com/Shrey-Sawant/Sonder/internal/model/rating"
	ratingService "github.com/Shrey-Sawant/Sonder/internal/service/rating"
	"github.com/Shrey-Sawant/Sonder/pkg/utils"
)

// Handler exposes counsellor rating routes.
type Handler struct {
	ratingSvc *ratingService.Service
}

// New creates the rating handler.
func New(ratingSvc *ratingService.Service) *Handler {
	return &Handler{ratingSvc: ratingSvc}
}

// RegisterRoutes mounts the rating routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ratings/", h.handleCreate)
	r.Post("/ratings", h.handleCreate)
	r.Get("/ratings/{counsellorID}", h.handleList)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StudentID    int64  `json:"student_id"`
		CounsellorID int64  `json:"counsellor_id"`
		Rating       int    `json:"rating"`
		Review       string `json:"review"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.StudentID == 0 {
		if principal, ok := middleware.PrincipalFrom(r.Context()); ok {
			payload.StudentID = principal.ID
		}
	}

	created, err := h.ratingSvc.Create(r.Context(), rating.Rating{
		StudentID:    payload.StudentID,
		CounsellorID: payload.CounsellorID,
		Rating:       payload.Rating,
		Review:       payload.Review,
	})
	if err != nil {
		switch {
		case errors.Is(err, ratingService.ErrOutOfRange),
			errors.Is(err, ratingService.ErrParticipantID),
			errors.Is(err, ratingService.ErrAlreadyRated):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "could not save rating")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	counsellorID, err := strconv.ParseInt(chi.URLParam(r, "counsellorID"), 10, 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid counsellor id")
		return
	}

	ratings, err := h.ratingSvc.ForCounsellor(r.Context(), counsellorID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not list ratings")
		return
	}
	if ratings == nil {
		ratings = []rating.Rating{}
	}
	utils.RespondJSON(w, http.StatusOK, ratings)
}
