package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/database/repository"
	"salonbook/models"
	"salonbook/services/notification"
	"salonbook/services/payment"
	"salonbook/services/pricing"
)

type fakeRepo struct {
	bookings             map[int64]*models.Booking
	ratings              map[int64]int
	nextID               int64
	conflictOnCreate     bool
	conflictOnCash       bool
	conflictOnReschedule bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bookings: map[int64]*models.Booking{}, ratings: map[int64]int{}, nextID: 1}
}

func (f *fakeRepo) add(b models.Booking) *models.Booking {
	b.ID = f.nextID
	f.nextID++
	if b.EndsAt.IsZero() {
		b.EndsAt = b.StartsAt.Add(time.Hour)
	}
	f.bookings[b.ID] = &b
	return f.bookings[b.ID]
}

func (f *fakeRepo) CreateHold(_ context.Context, p repository.CreateHoldParams) (*models.Booking, error) {
	if f.conflictOnCreate {
		return nil, repository.ErrSlotConflict
	}
	deadline := time.Now().UTC().Add(time.Duration(p.HoldMinutes) * time.Minute)
	b := f.add(models.Booking{
		UserID:             p.UserID,
		MasterID:           p.MasterID,
		Status:             models.StatusReserved,
		StartsAt:           p.StartsAt,
		EndsAt:             p.StartsAt.Add(time.Duration(p.DurationMinutes) * time.Minute),
		OriginalPriceCents: &p.OriginalPriceCents,
		FinalPriceCents:    &p.FinalPriceCents,
		DiscountApplied:    p.DiscountApplied,
		CashHoldExpiresAt:  &deadline,
		CreatedAt:          time.Now().UTC(),
	})
	return b, nil
}

func (f *fakeRepo) transition(id int64, to models.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if !models.IsValidTransition(b.Status, to) {
		return repository.ErrInvalidTransition
	}
	b.Status = to
	return nil
}

func (f *fakeRepo) ConfirmCash(_ context.Context, id int64) error {
	if f.conflictOnCash {
		return repository.ErrSlotConflict
	}
	if err := f.transition(id, models.StatusConfirmed); err != nil {
		return err
	}
	f.bookings[id].CashHoldExpiresAt = nil
	return nil
}

func (f *fakeRepo) SetPendingPayment(_ context.Context, id int64) error {
	return f.transition(id, models.StatusPendingPayment)
}

func (f *fakeRepo) MarkPaid(_ context.Context, id int64, provider, paymentID string) error {
	if err := f.transition(id, models.StatusPaid); err != nil {
		return err
	}
	now := time.Now().UTC()
	f.bookings[id].PaidAt = &now
	f.bookings[id].PaymentProvider = &provider
	f.bookings[id].PaymentID = &paymentID
	return nil
}

func (f *fakeRepo) SetCancelled(_ context.Context, id int64) error {
	return f.transition(id, models.StatusCancelled)
}

func (f *fakeRepo) SetDone(_ context.Context, id int64) error {
	return f.transition(id, models.StatusDone)
}

func (f *fakeRepo) SetNoShow(_ context.Context, id int64) error {
	return f.transition(id, models.StatusNoShow)
}

func (f *fakeRepo) Reschedule(_ context.Context, id int64, newStartsAt time.Time) error {
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if f.conflictOnReschedule {
		return repository.ErrSlotConflict
	}
	d := b.EndsAt.Sub(b.StartsAt)
	b.StartsAt = newStartsAt
	b.EndsAt = newStartsAt.Add(d)
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeRepo) GetDetails(_ context.Context, id int64) (*models.BookingDetails, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	masterExternal := 200 + b.MasterID
	return &models.BookingDetails{
		Booking:          *b,
		ClientName:       "Ann",
		ClientExternalID: 100 + b.UserID,
		ClientLocale:     "uk",
		MasterName:       "Olha",
		MasterExternalID: &masterExternal,
		ServiceNames:     "Haircut",
	}, nil
}

func (f *fakeRepo) GetServiceNames(_ context.Context, _ int64) (string, error) {
	return "Haircut", nil
}

func (f *fakeRepo) ListActiveByUser(_ context.Context, _ int64) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeRepo) ListHistoryByUser(_ context.Context, _ int64, _ int) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeRepo) ListForMasterBetween(_ context.Context, _ int64, _, _ time.Time) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeRepo) CreateRating(_ context.Context, id int64, rating int, _ *string) error {
	if _, exists := f.ratings[id]; exists {
		return repository.ErrRatingExists
	}
	f.ratings[id] = rating
	return nil
}

type fakePricing struct{}

func (fakePricing) Aggregate(_ context.Context, serviceIDs []string, _ *int64) (*pricing.Aggregate, error) {
	agg := &pricing.Aggregate{Currency: "UAH"}
	for _, id := range serviceIDs {
		if id == "ghost" {
			return nil, repository.ErrServiceNotFound
		}
		agg.Items = append(agg.Items, pricing.LineItem{ServiceID: id, Minutes: 60, PriceCents: 10000})
		agg.TotalMinutes += 60
		agg.TotalPriceCents += 10000
	}
	return agg, nil
}

func (fakePricing) QuoteFor(_ context.Context, original int64, online bool) pricing.Quote {
	q := pricing.Quote{OriginalCents: original, FinalCents: original}
	if online {
		q.FinalCents = pricing.DiscountedPrice(original, 5)
		q.DiscountAmountCents = q.OriginalCents - q.FinalCents
		q.DiscountPercentApplied = 5
		label := pricing.OnlineDiscountLabel
		q.DiscountApplied = &label
	}
	return q
}

type fakeNotifier struct {
	events     []notification.Event
	recipients [][]int64
}

func (f *fakeNotifier) Notify(_ context.Context, event notification.Event, _ int64, recipients []int64) {
	f.events = append(f.events, event)
	f.recipients = append(f.recipients, recipients)
}

type fakeInvoices struct {
	enabled bool
	fail    bool
}

func (f *fakeInvoices) Enabled() bool { return f.enabled }

func (f *fakeInvoices) CreateInvoice(_ context.Context, req payment.InvoiceRequest) (*payment.Invoice, error) {
	if f.fail {
		return nil, errors.New("provider down")
	}
	return &payment.Invoice{ID: "cs_123", URL: "https://pay.example/cs_123"}, nil
}

type fakeSettings struct {
	ints  map[string]int
	bools map[string]bool
}

func (f fakeSettings) GetInt(_ context.Context, key string, def int) int {
	if v, ok := f.ints[key]; ok {
		return v
	}
	return def
}

func (f fakeSettings) GetBool(_ context.Context, key string, def bool) bool {
	if v, ok := f.bools[key]; ok {
		return v
	}
	return def
}

func (f fakeSettings) GetString(_ context.Context, _ string, def string) string {
	if def == "" {
		return "UAH"
	}
	return def
}

type fixture struct {
	svc      *DefaultBookingService
	repo     *fakeRepo
	notifier *fakeNotifier
	invoices *fakeInvoices
}

func newFixture() *fixture {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	invoices := &fakeInvoices{enabled: true}
	settings := fakeSettings{
		ints: map[string]int{
			"reservation_hold_minutes":     10,
			"client_cancel_lock_hours":     3,
			"client_reschedule_lock_hours": 3,
		},
		bools: map[string]bool{"telegram_payments_enabled": true},
	}
	return &fixture{
		svc:      NewDefaultBookingService(repo, fakePricing{}, notifier, invoices, settings),
		repo:     repo,
		notifier: notifier,
		invoices: invoices,
	}
}

func futureSlot() time.Time {
	return time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
}

func TestHoldValidation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	res, err := fx.svc.Hold(ctx, 1, 0, []string{"cut"}, futureSlot(), PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, CodeMasterRequired, res.Code)

	res, err = fx.svc.Hold(ctx, 1, 7, nil, futureSlot(), PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, CodeServiceRequired, res.Code)

	res, err = fx.svc.Hold(ctx, 1, 7, []string{"cut"}, time.Now().UTC().Add(-time.Hour), PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, CodeSlotInPast, res.Code)

	res, err = fx.svc.Hold(ctx, 1, 7, []string{"ghost"}, futureSlot(), PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, CodeServiceRequired, res.Code)
}

func TestHoldSuccess(t *testing.T) {
	fx := newFixture()
	res, err := fx.svc.Hold(context.Background(), 1, 7, []string{"cut", "color"}, futureSlot(), PaymentCash)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NotNil(t, res.Booking)

	assert.Equal(t, models.StatusReserved, res.Booking.Status)
	assert.NotNil(t, res.Booking.CashHoldExpiresAt)
	assert.Equal(t, int64(20000), *res.Booking.FinalPriceCents)
	assert.Equal(t, 120, res.Booking.DurationMinutes())
	require.Len(t, fx.notifier.events, 1)
	assert.Equal(t, notification.EventReserved, fx.notifier.events[0])
}

func TestHoldOnlineAppliesDiscount(t *testing.T) {
	fx := newFixture()
	res, err := fx.svc.Hold(context.Background(), 1, 7, []string{"cut"}, futureSlot(), PaymentOnline)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, int64(9500), *res.Booking.FinalPriceCents)
	require.NotNil(t, res.Booking.DiscountApplied)
}

func TestHoldConflict(t *testing.T) {
	fx := newFixture()
	fx.repo.conflictOnCreate = true
	res, err := fx.svc.Hold(context.Background(), 1, 7, []string{"cut"}, futureSlot(), PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, CodeSlotUnavailable, res.Code)
	assert.Empty(t, fx.notifier.events, "a failed hold sends nothing")
}

func TestFinalizeCash(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	held, err := fx.svc.Hold(ctx, 1, 7, []string{"cut"}, futureSlot(), PaymentCash)
	require.NoError(t, err)

	res, err := fx.svc.Finalize(ctx, 1, held.Booking.ID, PaymentCash)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, models.StatusConfirmed, res.Booking.Status)
	assert.Nil(t, res.Booking.CashHoldExpiresAt, "cash confirm clears the hold deadline")
	assert.Contains(t, fx.notifier.events, notification.EventCashConfirmed)
}

func TestFinalizeOnlineReturnsInvoice(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	held, err := fx.svc.Hold(ctx, 1, 7, []string{"cut"}, futureSlot(), PaymentOnline)
	require.NoError(t, err)

	res, err := fx.svc.Finalize(ctx, 1, held.Booking.ID, PaymentOnline)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, models.StatusPendingPayment, res.Booking.Status)
	assert.Equal(t, "https://pay.example/cs_123", res.InvoiceURL)
}

func TestFinalizeOnlineUnavailable(t *testing.T) {
	fx := newFixture()
	fx.invoices.enabled = false
	ctx := context.Background()
	held, err := fx.svc.Hold(ctx, 1, 7, []string{"cut"}, futureSlot(), PaymentCash)
	require.NoError(t, err)

	res, err := fx.svc.Finalize(ctx, 1, held.Booking.ID, PaymentOnline)
	require.NoError(t, err)
	assert.Equal(t, CodeOnlinePaymentsUnavailable, res.Code)
	assert.Equal(t, models.StatusReserved, fx.repo.bookings[held.Booking.ID].Status, "booking stays held")
}

func TestFinalizeGuards(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	res, err := fx.svc.Finalize(ctx, 1, 999, PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, CodeBookingNotFound, res.Code)

	held, err := fx.svc.Hold(ctx, 1, 7, []string{"cut"}, futureSlot(), PaymentCash)
	require.NoError(t, err)

	res, err = fx.svc.Finalize(ctx, 2, held.Booking.ID, PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, CodeUnauthorized, res.Code)

	_, err = fx.svc.Finalize(ctx, 1, held.Booking.ID, PaymentCash)
	require.NoError(t, err)
	res, err = fx.svc.Finalize(ctx, 1, held.Booking.ID, PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, CodeBookingNotActive, res.Code, "already confirmed")
}

func TestCancelLockWindow(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	soon := fx.repo.add(models.Booking{
		UserID: 1, MasterID: 7, Status: models.StatusConfirmed,
		StartsAt: time.Now().UTC().Add(2 * time.Hour),
	})

	res, err := fx.svc.Cancel(ctx, 1, soon.ID, false)
	require.NoError(t, err)
	assert.Equal(t, CodeCancelTooClose, res.Code)

	// Elevated callers bypass the lock.
	res, err = fx.svc.Cancel(ctx, 1, soon.ID, true)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, models.StatusCancelled, fx.repo.bookings[soon.ID].Status)
	assert.Contains(t, fx.notifier.events, notification.EventCancelled)
}

func TestCancelOutsideLockWindow(t *testing.T) {
	fx := newFixture()
	far := fx.repo.add(models.Booking{
		UserID: 1, MasterID: 7, Status: models.StatusConfirmed,
		StartsAt: time.Now().UTC().Add(8 * time.Hour),
	})
	res, err := fx.svc.Cancel(context.Background(), 1, far.ID, false)
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestCancelGuards(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	res, err := fx.svc.Cancel(ctx, 1, 42, false)
	require.NoError(t, err)
	assert.Equal(t, CodeBookingNotFound, res.Code)

	b := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusDone,
		StartsAt: time.Now().UTC().Add(8 * time.Hour)})
	res, err = fx.svc.Cancel(ctx, 1, b.ID, false)
	require.NoError(t, err)
	assert.Equal(t, CodeBookingNotActive, res.Code)

	active := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusConfirmed,
		StartsAt: time.Now().UTC().Add(8 * time.Hour)})
	res, err = fx.svc.Cancel(ctx, 2, active.ID, false)
	require.NoError(t, err)
	assert.Equal(t, CodeUnauthorized, res.Code)
}

func TestRescheduleLockAndConflict(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	soon := fx.repo.add(models.Booking{
		UserID: 1, MasterID: 7, Status: models.StatusConfirmed,
		StartsAt: time.Now().UTC().Add(90 * time.Minute),
	})

	res, err := fx.svc.Reschedule(ctx, 1, soon.ID, futureSlot(), false)
	require.NoError(t, err)
	assert.Equal(t, CodeRescheduleTooClose, res.Code)

	far := fx.repo.add(models.Booking{
		UserID: 1, MasterID: 7, Status: models.StatusConfirmed,
		StartsAt: time.Now().UTC().Add(8 * time.Hour),
	})
	fx.repo.conflictOnReschedule = true
	res, err = fx.svc.Reschedule(ctx, 1, far.ID, futureSlot(), false)
	require.NoError(t, err)
	assert.Equal(t, CodeSlotUnavailable, res.Code)

	fx.repo.conflictOnReschedule = false
	target := futureSlot()
	res, err = fx.svc.Reschedule(ctx, 1, far.ID, target, false)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, target, fx.repo.bookings[far.ID].StartsAt)
	assert.Equal(t, target.Add(time.Hour), fx.repo.bookings[far.ID].EndsAt, "duration preserved")
	assert.Contains(t, fx.notifier.events, notification.EventRescheduledByClient)
}

func TestReschedulePreservesStatus(t *testing.T) {
	fx := newFixture()
	far := fx.repo.add(models.Booking{
		UserID: 1, MasterID: 7, Status: models.StatusPaid,
		StartsAt: time.Now().UTC().Add(8 * time.Hour),
	})
	res, err := fx.svc.Reschedule(context.Background(), 1, far.ID, futureSlot(), false)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, models.StatusPaid, fx.repo.bookings[far.ID].Status)
}

func TestRatePolicies(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	done := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusDone,
		StartsAt: time.Now().UTC().Add(-time.Hour)})

	res, err := fx.svc.Rate(ctx, 1, done.ID, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, CodeRatingInvalidValue, res.Code)

	res, err = fx.svc.Rate(ctx, 1, done.ID, 6, nil)
	require.NoError(t, err)
	assert.Equal(t, CodeRatingInvalidValue, res.Code)

	res, err = fx.svc.Rate(ctx, 2, done.ID, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, CodeUnauthorized, res.Code)

	pending := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusConfirmed,
		StartsAt: time.Now().UTC().Add(time.Hour)})
	res, err = fx.svc.Rate(ctx, 1, pending.ID, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, CodeRatingOnlyAfterDone, res.Code)

	res, err = fx.svc.Rate(ctx, 1, done.ID, 5, nil)
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = fx.svc.Rate(ctx, 1, done.ID, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, CodeAlreadyRated, res.Code)
}

func TestCreateInvoiceGuards(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	noPrice := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusReserved,
		StartsAt: time.Now().UTC().Add(time.Hour)})
	res, err := fx.svc.CreateInvoice(ctx, noPrice.ID)
	require.NoError(t, err)
	assert.Equal(t, CodeInvoiceMissingPrice, res.Code)

	price := int64(10000)
	priced := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusReserved,
		StartsAt: time.Now().UTC().Add(time.Hour), FinalPriceCents: &price})

	fx.invoices.fail = true
	res, err = fx.svc.CreateInvoice(ctx, priced.ID)
	require.NoError(t, err)
	assert.Equal(t, CodeOnlinePaymentsUnavailable, res.Code)

	fx.invoices.fail = false
	res, err = fx.svc.CreateInvoice(ctx, priced.ID)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, "https://pay.example/cs_123", res.InvoiceURL)
}

func TestHandlePaymentSuccess(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	pending := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusPendingPayment,
		StartsAt: time.Now().UTC().Add(time.Hour)})

	res, err := fx.svc.HandlePaymentSuccess(ctx, pending.ID, "stripe", "cs_123")
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, models.StatusPaid, fx.repo.bookings[pending.ID].Status)
	assert.Contains(t, fx.notifier.events, notification.EventPaid)

	cancelled := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusCancelled,
		StartsAt: time.Now().UTC().Add(time.Hour)})
	res, err = fx.svc.HandlePaymentSuccess(ctx, cancelled.ID, "stripe", "cs_456")
	require.NoError(t, err)
	assert.Equal(t, CodeBookingNotActive, res.Code)
}

func TestMarkDoneAuthorization(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	b := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusConfirmed,
		StartsAt: time.Now().UTC().Add(-time.Hour)})

	res, err := fx.svc.MarkDone(ctx, 9, false, b.ID)
	require.NoError(t, err)
	assert.Equal(t, CodeUnauthorized, res.Code, "another master may not complete it")

	res, err = fx.svc.MarkDone(ctx, 7, false, b.ID)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, models.StatusDone, fx.repo.bookings[b.ID].Status)
}

func TestMarkNoShowNotifies(t *testing.T) {
	fx := newFixture()
	b := fx.repo.add(models.Booking{UserID: 1, MasterID: 7, Status: models.StatusConfirmed,
		StartsAt: time.Now().UTC().Add(-3 * time.Hour)})

	res, err := fx.svc.MarkNoShow(context.Background(), 0, true, b.ID)
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Contains(t, fx.notifier.events, notification.EventNoShow)
}

func TestHoldThenCancelFreesNothingPermanent(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	held, err := fx.svc.Hold(ctx, 1, 7, []string{"cut"}, futureSlot(), PaymentCash)
	require.NoError(t, err)

	res, err := fx.svc.Cancel(ctx, 1, held.Booking.ID, false)
	require.NoError(t, err)
	require.True(t, res.OK)

	// Another user can take the same slot immediately.
	again, err := fx.svc.Hold(ctx, 2, 7, []string{"cut"}, futureSlot(), PaymentCash)
	require.NoError(t, err)
	assert.True(t, again.OK)
}
