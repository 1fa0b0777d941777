// Package schedule implements counsellor booking requests and availability
// lookups.
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/Shrey-Sawant/Sonder/internal/model/schedule"
	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	"github.com/Shrey-Sawant/Sonder/internal/store"
)

var (
	ErrRequestNotFound     = errors.New("request not found")
	ErrParticipantRequired = errors.New("student and counsellor ids are required")
	ErrInvalidStatus       = errors.New("invalid booking status")
	ErrPastTime            = errors.New("scheduled time is in the past")
)

// Service manages booking requests.
type Service struct {
	requests store.ScheduleStore
	now      func() time.Time
}

// NewService wires the scheduling service.
func NewService(requests store.ScheduleStore) *Service {
	return &Service{requests: requests, now: time.Now}
}

// CreateRequest records a pending booking. Double-booking a slot is not
// prevented here; the counsellor declines the loser.
func (s *Service) CreateRequest(ctx context.Context, r schedule.Request) (schedule.Request, error) {
	if r.StudentID == 0 || r.CounsellorID == 0 {
		return schedule.Request{}, ErrParticipantRequired
	}
	if r.ScheduledTime.Before(s.now()) {
		return schedule.Request{}, ErrPastTime
	}
	if r.Status == "" {
		r.Status = schedule.StatusPending
	}
	if !schedule.ValidStatus(r.Status) {
		return schedule.Request{}, ErrInvalidStatus
	}
	return s.requests.CreateRequest(ctx, r)
}

// RequestsFor lists bookings visible to the principal.
func (s *Service) RequestsFor(ctx context.Context, principal user.User) ([]schedule.Request, error) {
	return s.requests.RequestsForUser(ctx, principal)
}

// UpdateStatus moves a booking to accepted or declined.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (schedule.Request, error) {
	if !schedule.ValidStatus(status) {
		return schedule.Request{}, ErrInvalidStatus
	}
	updated, err := s.requests.UpdateRequestStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return schedule.Request{}, ErrRequestNotFound
		}
		return schedule.Request{}, err
	}
	return updated, nil
}

// BusySlots returns the "HH:MM" start times already occupied for the
// counsellor on the given day.
func (s *Service) BusySlots(ctx context.Context, counsellorID int64, day time.Time) ([]string, error) {
	return s.requests.BusySlots(ctx, counsellorID, day)
}
