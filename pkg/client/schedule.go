package client

import (
	"context"
	"fmt"
	"time"
)

// MasterSlots is the fixed list of bookable start times, hourly 09:00-17:00.
var MasterSlots = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00",
}

// Scheduler drives the booking flow: availability lookup against the master
// slot list and request submission. It is request/response only, with no live
// feed involvement.
type Scheduler struct {
	client *Client
	slots  []string
}

// NewScheduler returns a scheduler using the default master slot list.
func NewScheduler(c *Client) *Scheduler {
	return &Scheduler{client: c, slots: MasterSlots}
}

// AvailableSlots returns the master slots not yet booked for the counsellor
// on date ("2006-01-02"), preserving master order. When the busy-slot lookup
// fails it fails open and returns the full master list: an availability-check
// failure must not block booking attempts, the server rejects conflicts on
// submit.
func (s *Scheduler) AvailableSlots(ctx context.Context, counsellorID int64, date string) []string {
	busy, err := s.client.BusySlots(ctx, counsellorID, date)
	if err != nil {
		out := make([]string, len(s.slots))
		copy(out, s.slots)
		return out
	}

	taken := make(map[string]struct{}, len(busy))
	for _, slot := range busy {
		taken[slot] = struct{}{}
	}

	out := make([]string, 0, len(s.slots))
	for _, slot := range s.slots {
		if _, ok := taken[slot]; !ok {
			out = append(out, slot)
		}
	}
	return out
}

// Book submits a pending request for the given date ("2006-01-02") and slot
// ("HH:MM"). Two users racing for the same slot is resolved server-side; the
// loser gets the error back here.
func (s *Scheduler) Book(ctx context.Context, counsellorID int64, date, slot string) (Booking, error) {
	scheduled, err := time.Parse("2006-01-02 15:04", fmt.Sprintf("%s %s", date, slot))
	if err != nil {
		return Booking{}, fmt.Errorf("invalid date or slot: %w", err)
	}
	return s.client.CreateBooking(ctx, counsellorID, scheduled)
}
