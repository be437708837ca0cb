// Package booking is the lifecycle orchestrator: it validates requests,
// snapshots prices, drives the repository's atomic transitions and fans out
// notifications. Domain failures come back as stable error codes; only
// infrastructure failures surface as errors.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"salonbook/config"
	"salonbook/database/repository"
	"salonbook/models"
	"salonbook/services/notification"
	"salonbook/services/payment"
	"salonbook/services/pricing"
	"salonbook/utils"
)

// PaymentMethod selects how the client intends to pay.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

// Repo is the booking persistence surface the orchestrator drives.
type Repo interface {
	CreateHold(ctx context.Context, p repository.CreateHoldParams) (*models.Booking, error)
	ConfirmCash(ctx context.Context, id int64) error
	SetPendingPayment(ctx context.Context, id int64) error
	MarkPaid(ctx context.Context, id int64, provider, paymentID string) error
	SetCancelled(ctx context.Context, id int64) error
	SetDone(ctx context.Context, id int64) error
	SetNoShow(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, newStartsAt time.Time) error
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	GetDetails(ctx context.Context, id int64) (*models.BookingDetails, error)
	GetServiceNames(ctx context.Context, id int64) (string, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	ListHistoryByUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error)
	ListForMasterBetween(ctx context.Context, masterID int64, from, to time.Time) ([]models.Booking, error)
	CreateRating(ctx context.Context, bookingID int64, rating int, comment *string) error
}

// Pricing resolves composition durations and prices.
type Pricing interface {
	Aggregate(ctx context.Context, serviceIDs []string, masterID *int64) (*pricing.Aggregate, error)
	QuoteFor(ctx context.Context, originalCents int64, onlinePayment bool) pricing.Quote
}

// Notifier fans out booking events.
type Notifier interface {
	Notify(ctx context.Context, event notification.Event, bookingID int64, recipients []int64)
}

// Settings is the runtime-mutable knob surface.
type Settings interface {
	GetInt(ctx context.Context, key string, def int) int
	GetBool(ctx context.Context, key string, def bool) bool
	GetString(ctx context.Context, key string, def string) string
}

// BookingService exposes the public lifecycle operations.
type BookingService interface {
	Hold(ctx context.Context, userID, masterID int64, serviceIDs []string, startsAt time.Time, method PaymentMethod) (Result, error)
	Finalize(ctx context.Context, userID, bookingID int64, method PaymentMethod) (Result, error)
	CreateBooking(ctx context.Context, userID, masterID int64, serviceIDs []string, startsAt time.Time, method PaymentMethod) (Result, error)
	Cancel(ctx context.Context, userID, bookingID int64, elevated bool) (Result, error)
	Reschedule(ctx context.Context, userID, bookingID int64, newStartsAt time.Time, elevated bool) (Result, error)
	Rate(ctx context.Context, userID, bookingID int64, rating int, comment *string) (Result, error)
	CreateInvoice(ctx context.Context, bookingID int64) (Result, error)
	HandlePaymentSuccess(ctx context.Context, bookingID int64, provider, paymentID string) (Result, error)
	MarkDone(ctx context.Context, actorMasterID int64, isAdmin bool, bookingID int64) (Result, error)
	MarkNoShow(ctx context.Context, actorMasterID int64, isAdmin bool, bookingID int64) (Result, error)
	ActiveForUser(ctx context.Context, userID int64) ([]models.Booking, error)
	HistoryForUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error)
	DayForMaster(ctx context.Context, masterID int64, from, to time.Time) ([]models.Booking, error)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo     Repo
	Pricing  Pricing
	Notifier Notifier
	Invoices payment.InvoiceProvider
	Settings Settings
}

// NewDefaultBookingService wires the orchestrator.
func NewDefaultBookingService(repo Repo, pricingSvc Pricing, notifier Notifier, invoices payment.InvoiceProvider, settings Settings) *DefaultBookingService {
	return &DefaultBookingService{Repo: repo, Pricing: pricingSvc, Notifier: notifier, Invoices: invoices, Settings: settings}
}

// onlineAvailable reports whether online payments can be offered right now.
func (s *DefaultBookingService) onlineAvailable(ctx context.Context) bool {
	if s.Invoices == nil || !s.Invoices.Enabled() {
		return false
	}
	return s.Settings.GetBool(ctx, config.KeyTelegramPaymentsEnabled, true)
}

// recipients collects the notification fan-out set for a booking: client,
// master and every admin. The dispatcher deduplicates.
func recipients(d *models.BookingDetails) []int64 {
	ids := []int64{d.ClientExternalID}
	if d.MasterExternalID != nil {
		ids = append(ids, *d.MasterExternalID)
	}
	return append(ids, config.AdminIDList()...)
}

// notify fans out an event for a booking, loading the snapshot for the
// recipient set. Best effort.
func (s *DefaultBookingService) notify(ctx context.Context, event notification.Event, bookingID int64) {
	d, err := s.Repo.GetDetails(ctx, bookingID)
	if err != nil {
		utils.GetLogger().Warn("notification fan-out skipped",
			zap.Int64("booking_id", bookingID), zap.String("event", string(event)), zap.Error(err))
		return
	}
	s.Notifier.Notify(ctx, event, bookingID, recipients(d))
}

// Hold validates the request, snapshots the price and creates a RESERVED
// booking with a hold deadline.
func (s *DefaultBookingService) Hold(ctx context.Context, userID, masterID int64, serviceIDs []string, startsAt time.Time, method PaymentMethod) (Result, error) {
	if masterID <= 0 {
		return failure(CodeMasterRequired), nil
	}
	if len(serviceIDs) == 0 {
		return failure(CodeServiceRequired), nil
	}
	startsAt = startsAt.UTC()
	if !startsAt.After(time.Now().UTC()) {
		return failure(CodeSlotInPast), nil
	}

	agg, err := s.Pricing.Aggregate(ctx, serviceIDs, &masterID)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return failure(CodeServiceRequired), nil
		}
		return Result{}, err
	}

	online := method == PaymentOnline && s.onlineAvailable(ctx)
	quote := s.Pricing.QuoteFor(ctx, agg.TotalPriceCents, online)

	items := make([]repository.PriceItem, 0, len(agg.Items))
	for _, it := range agg.Items {
		items = append(items, repository.PriceItem{ServiceID: it.ServiceID, PriceCents: it.PriceCents})
	}
	holdMinutes := s.Settings.GetInt(ctx, config.KeyReservationHoldMinutes, config.AppConfig.ReservationHoldMinutes)

	b, err := s.Repo.CreateHold(ctx, repository.CreateHoldParams{
		UserID:             userID,
		MasterID:           masterID,
		StartsAt:           startsAt,
		DurationMinutes:    agg.TotalMinutes,
		HoldMinutes:        holdMinutes,
		OriginalPriceCents: quote.OriginalCents,
		FinalPriceCents:    quote.FinalCents,
		DiscountApplied:    quote.DiscountApplied,
		Items:              items,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			return failure(CodeSlotUnavailable), nil
		}
		return Result{}, err
	}

	details, err := s.Repo.GetDetails(ctx, b.ID)
	if err != nil {
		return Result{}, fmt.Errorf("hold created but snapshot failed: %w", err)
	}
	s.Notifier.Notify(ctx, notification.EventReserved, b.ID, recipients(details))
	return success(details), nil
}

// Finalize settles a RESERVED booking: cash confirms it immediately, online
// moves it to PENDING_PAYMENT and returns an invoice URL.
func (s *DefaultBookingService) Finalize(ctx context.Context, userID, bookingID int64, method PaymentMethod) (Result, error) {
	b, err := s.Repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return failure(CodeBookingNotFound), nil
		}
		return Result{}, err
	}
	if userID != 0 && b.UserID != userID {
		return failure(CodeUnauthorized), nil
	}
	if b.Status != models.StatusReserved {
		return failure(CodeBookingNotActive), nil
	}

	if method != PaymentOnline {
		if err := s.Repo.ConfirmCash(ctx, bookingID); err != nil {
			switch {
			case errors.Is(err, repository.ErrSlotConflict):
				return failure(CodeConflict), nil
			case errors.Is(err, repository.ErrInvalidTransition):
				return failure(CodeBookingNotActive), nil
			}
			return Result{}, err
		}
		s.notify(ctx, notification.EventCashConfirmed, bookingID)
		details, err := s.Repo.GetDetails(ctx, bookingID)
		if err != nil {
			return Result{}, err
		}
		return success(details), nil
	}

	if !s.onlineAvailable(ctx) {
		return failure(CodeOnlinePaymentsUnavailable), nil
	}
	if err := s.Repo.SetPendingPayment(ctx, bookingID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return failure(CodeBookingNotActive), nil
		}
		return Result{}, err
	}
	invoice, err := s.CreateInvoice(ctx, bookingID)
	if err != nil || !invoice.OK {
		return invoice, err
	}
	details, err := s.Repo.GetDetails(ctx, bookingID)
	if err != nil {
		return Result{}, err
	}
	res := success(details)
	res.InvoiceURL = invoice.InvoiceURL
	return res, nil
}

// CreateBooking holds and immediately finalizes.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, userID, masterID int64, serviceIDs []string, startsAt time.Time, method PaymentMethod) (Result, error) {
	held, err := s.Hold(ctx, userID, masterID, serviceIDs, startsAt, method)
	if err != nil || !held.OK {
		return held, err
	}
	return s.Finalize(ctx, userID, held.Booking.ID, method)
}

// Cancel cancels a non-terminal booking. Clients are bound by the cancel
// lock window; elevated callers (master, admin) are not.
func (s *DefaultBookingService) Cancel(ctx context.Context, userID, bookingID int64, elevated bool) (Result, error) {
	b, err := s.Repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return failure(CodeBookingNotFound), nil
		}
		return Result{}, err
	}
	if !elevated && b.UserID != userID {
		return failure(CodeUnauthorized), nil
	}
	if b.Status.IsTerminal() {
		return failure(CodeBookingNotActive), nil
	}
	if !elevated {
		lockHours := s.Settings.GetInt(ctx, config.KeyClientCancelLockHours, config.AppConfig.ClientCancelLockHours)
		if time.Until(b.StartsAt) < time.Duration(lockHours)*time.Hour {
			return failure(CodeCancelTooClose), nil
		}
	}
	if err := s.Repo.SetCancelled(ctx, bookingID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return failure(CodeBookingNotActive), nil
		}
		return Result{}, err
	}
	s.notify(ctx, notification.EventCancelled, bookingID)
	return Result{OK: true}, nil
}

// Reschedule moves a non-terminal booking to a new start, preserving its
// duration and status. Clients are bound by the reschedule lock window.
func (s *DefaultBookingService) Reschedule(ctx context.Context, userID, bookingID int64, newStartsAt time.Time, elevated bool) (Result, error) {
	b, err := s.Repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return failure(CodeBookingNotFound), nil
		}
		return Result{}, err
	}
	if !elevated && b.UserID != userID {
		return failure(CodeUnauthorized), nil
	}
	if b.Status.IsTerminal() {
		return failure(CodeBookingNotActive), nil
	}
	newStartsAt = newStartsAt.UTC()
	if !newStartsAt.After(time.Now().UTC()) {
		return failure(CodeSlotInPast), nil
	}
	if !elevated {
		lockHours := s.Settings.GetInt(ctx, config.KeyClientRescheduleLockHours, config.AppConfig.ClientRescheduleLockHours)
		if time.Until(b.StartsAt) < time.Duration(lockHours)*time.Hour {
			return failure(CodeRescheduleTooClose), nil
		}
	}
	if err := s.Repo.Reschedule(ctx, bookingID, newStartsAt); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotConflict):
			return failure(CodeSlotUnavailable), nil
		case errors.Is(err, repository.ErrInvalidTransition):
			return failure(CodeBookingNotActive), nil
		}
		return Result{}, err
	}
	event := notification.EventRescheduledByClient
	if elevated {
		event = notification.EventRescheduledByMaster
	}
	s.notify(ctx, event, bookingID)
	return Result{OK: true}, nil
}

// Rate records the single client rating of a completed booking.
func (s *DefaultBookingService) Rate(ctx context.Context, userID, bookingID int64, rating int, comment *string) (Result, error) {
	if rating < config.MinRating || rating > config.MaxRating {
		return failure(CodeRatingInvalidValue), nil
	}
	b, err := s.Repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return failure(CodeBookingNotFound), nil
		}
		return Result{}, err
	}
	if b.UserID != userID {
		return failure(CodeUnauthorized), nil
	}
	if b.Status != models.StatusDone {
		return failure(CodeRatingOnlyAfterDone), nil
	}
	if err := s.Repo.CreateRating(ctx, bookingID, rating, comment); err != nil {
		if errors.Is(err, repository.ErrRatingExists) {
			return failure(CodeAlreadyRated), nil
		}
		return Result{}, err
	}
	return Result{OK: true}, nil
}

// CreateInvoice produces a payment link for the snapshotted final price.
func (s *DefaultBookingService) CreateInvoice(ctx context.Context, bookingID int64) (Result, error) {
	b, err := s.Repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return failure(CodeBookingNotFound), nil
		}
		return Result{}, err
	}
	if b.FinalPriceCents == nil || *b.FinalPriceCents <= 0 {
		return failure(CodeInvoiceMissingPrice), nil
	}
	if !s.onlineAvailable(ctx) {
		return failure(CodeOnlinePaymentsUnavailable), nil
	}

	title, err := s.Repo.GetServiceNames(ctx, bookingID)
	if err != nil || title == "" {
		title = "Salon appointment"
	}
	currency := s.Settings.GetString(ctx, config.KeyDefaultCurrency, config.AppConfig.DefaultCurrency)
	invoice, err := s.Invoices.CreateInvoice(ctx, payment.InvoiceRequest{
		BookingID:   bookingID,
		Title:       title,
		AmountCents: *b.FinalPriceCents,
		Currency:    currency,
	})
	if err != nil {
		utils.GetLogger().Warn("invoice creation failed",
			zap.Int64("booking_id", bookingID), zap.Error(err))
		return failure(CodeOnlinePaymentsUnavailable), nil
	}
	return Result{OK: true, InvoiceURL: invoice.URL}, nil
}

// HandlePaymentSuccess records a provider payment callback and notifies.
func (s *DefaultBookingService) HandlePaymentSuccess(ctx context.Context, bookingID int64, provider, paymentID string) (Result, error) {
	if err := s.Repo.MarkPaid(ctx, bookingID, provider, paymentID); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return failure(CodeBookingNotFound), nil
		case errors.Is(err, repository.ErrInvalidTransition):
			return failure(CodeBookingNotActive), nil
		}
		return Result{}, err
	}
	s.notify(ctx, notification.EventPaid, bookingID)
	return Result{OK: true}, nil
}
