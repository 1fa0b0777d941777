package schedule

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shrey-Sawant/Sonder/internal/middleware"
	"github.com/Shrey-Sawant/Sonder/internal/model/schedule"
	scheduleService "github.com/Shrey-Sawant/Sonder/internal/service/schedule"
	"github.com/Shrey-Sawant/Sonder/pkg/utils"
)

// Handler exposes booking routes.
type Handler struct {
	scheduleSvc *scheduleService.Service
}

// New creates the schedule handler.
func New(scheduleSvc *scheduleService.Service) *Handler {
	return &Handler{scheduleSvc: scheduleSvc}
}

// RegisterRoutes mounts the schedule routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/schedule/", h.handleList)
	r.Get("/schedule", h.handleList)
	r.Post("/schedule/", h.handleCreate)
	r.Post("/schedule", h.handleCreate)
	r.Get("/schedule/busy-slots", h.handleBusySlots)
	r.Put("/schedule/{requestID}", h.handleUpdateStatus)
	r.Patch("/schedule/{requestID}", h.handleUpdateStatus)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StudentID     int64  `json:"student_id"`
		CounsellorID  int64  `json:"counsellor_id"`
		ScheduledTime string `json:"scheduled_time"`
		Status        string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	scheduledTime, err := parseScheduledTime(payload.ScheduledTime)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid scheduled_time")
		return
	}

	if payload.StudentID == 0 {
		if principal, ok := middleware.PrincipalFrom(r.Context()); ok {
			payload.StudentID = principal.ID
		}
	}

	created, err := h.scheduleSvc.CreateRequest(r.Context(), schedule.Request{
		StudentID:     payload.StudentID,
		CounsellorID:  payload.CounsellorID,
		ScheduledTime: scheduledTime,
		Status:        payload.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, scheduleService.ErrParticipantRequired),
			errors.Is(err, scheduleService.ErrInvalidStatus),
			errors.Is(err, scheduleService.ErrPastTime):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "could not create booking")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requests, err := h.scheduleSvc.RequestsFor(r.Context(), principal)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not list bookings")
		return
	}
	if requests == nil {
		requests = []schedule.Request{}
	}
	utils.RespondJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	// PUT carries the status as a query parameter, PATCH in the body.
	status := r.URL.Query().Get("status")
	if status == "" {
		var payload struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			status = payload.Status
		}
	}

	updated, err := h.scheduleSvc.UpdateStatus(r.Context(), requestID, status)
	if err != nil {
		switch {
		case errors.Is(err, scheduleService.ErrRequestNotFound):
			utils.RespondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, scheduleService.ErrInvalidStatus):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "could not update booking")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleBusySlots(w http.ResponseWriter, r *http.Request) {
	counsellorID, err := strconv.ParseInt(r.URL.Query().Get("counsellor_id"), 10, 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid counsellor_id")
		return
	}

	day, err := time.Parse("2006-01-02", r.URL.Query().Get("selected_date"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid selected_date")
		return
	}

	slots, err := h.scheduleSvc.BusySlots(r.Context(), counsellorID, day)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not load busy slots")
		return
	}
	if slots == nil {
		slots = []string{}
	}
	utils.RespondJSON(w, http.StatusOK, slots)
}

// parseScheduledTime accepts RFC3339 or the frontend's "2006-01-02T15:04:05"
// local form.
func parseScheduledTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}
