// Package rating implements counsellor reviews.
package rating

import (
	"context"
	"errors"

	"github.com/Shrey-Sawant/Sonder/internal/model/rating"
	"github.com/Shrey-Sawant/Sonder/internal/store"
)

var (
	ErrOutOfRange    = errors.New("rating must be between 1 and 5")
	ErrAlreadyRated  = errors.New("counsellor already rated by this student")
	ErrParticipantID = errors.New("student and counsellor ids are required")
)

// Service manages counsellor ratings.
type Service struct {
	ratings store.RatingStore
}

// NewService wires the rating service.
func NewService(ratings store.RatingStore) *Service {
	return &Service{ratings: ratings}
}

// Create records a 1-5 review; a student may rate a counsellor once.
func (s *Service) Create(ctx context.Context, r rating.Rating) (rating.Rating, error) {
	if r.StudentID == 0 || r.CounsellorID == 0 {
		return rating.Rating{}, ErrParticipantID
	}
	if r.Rating < 1 || r.Rating > 5 {
		return rating.Rating{}, ErrOutOfRange
	}

	created, err := s.ratings.CreateRating(ctx, r)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return rating.Rating{}, ErrAlreadyRated
		}
		return rating.Rating{}, err
	}
	return created, nil
}

// ForCounsellor lists reviews of one counsellor.
func (s *Service) ForCounsellor(ctx context.Context, counsellorID int64) ([]rating.Rating, error) {
	return s.ratings.RatingsForCounsellor(ctx, counsellorID)
}
