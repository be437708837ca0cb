package booking

import (
	"context"
	"errors"
	"time"

	"salonbook/config"
	"salonbook/database/repository"
	"salonbook/models"
	"salonbook/services/notification"
)

// MarkDone completes a booking on behalf of its master or an admin.
func (s *DefaultBookingService) MarkDone(ctx context.Context, actorMasterID int64, isAdmin bool, bookingID int64) (Result, error) {
	b, err := s.Repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return failure(CodeBookingNotFound), nil
		}
		return Result{}, err
	}
	if !isAdmin && b.MasterID != actorMasterID {
		return failure(CodeUnauthorized), nil
	}
	if err := s.Repo.SetDone(ctx, bookingID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return failure(CodeBookingNotActive), nil
		}
		return Result{}, err
	}
	return Result{OK: true}, nil
}

// MarkNoShow flags a missed booking on behalf of its master or an admin and
// notifies the parties.
func (s *DefaultBookingService) MarkNoShow(ctx context.Context, actorMasterID int64, isAdmin bool, bookingID int64) (Result, error) {
	b, err := s.Repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return failure(CodeBookingNotFound), nil
		}
		return Result{}, err
	}
	if !isAdmin && b.MasterID != actorMasterID {
		return failure(CodeUnauthorized), nil
	}
	if err := s.Repo.SetNoShow(ctx, bookingID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return failure(CodeBookingNotActive), nil
		}
		return Result{}, err
	}
	s.notify(ctx, notification.EventNoShow, bookingID)
	return Result{OK: true}, nil
}

// ActiveForUser lists the caller's upcoming non-terminal bookings.
func (s *DefaultBookingService) ActiveForUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	return s.Repo.ListActiveByUser(ctx, userID)
}

// HistoryForUser lists the caller's most recent bookings, newest first.
func (s *DefaultBookingService) HistoryForUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = config.DefaultPageLimit
	}
	if limit > config.MaxPageLimit {
		limit = config.MaxPageLimit
	}
	return s.Repo.ListHistoryByUser(ctx, userID, limit)
}

// DayForMaster lists a master's bookings in [from, to).
func (s *DefaultBookingService) DayForMaster(ctx context.Context, masterID int64, from, to time.Time) ([]models.Booking, error) {
	return s.Repo.ListForMasterBetween(ctx, masterID, from, to)
}
