package models

import (
	"time"
)

// Booking represents a reservation of a master's time by a user. Rows are
// never deleted; cancellations and expiries are status changes.
type Booking struct {
	ID                 int64         `db:"id" json:"id"`
	UserID             int64         `db:"user_id" json:"user_id"`
	MasterID           int64         `db:"master_id" json:"master_id"`
	Status             BookingStatus `db:"status" json:"status"`
	StartsAt           time.Time     `db:"starts_at" json:"starts_at"`
	EndsAt             time.Time     `db:"ends_at" json:"ends_at"`
	OriginalPriceCents *int64        `db:"original_price_cents" json:"original_price_cents,omitempty"`
	FinalPriceCents    *int64        `db:"final_price_cents" json:"final_price_cents,omitempty"`
	DiscountApplied    *string       `db:"discount_applied" json:"discount_applied,omitempty"`
	CashHoldExpiresAt  *time.Time    `db:"cash_hold_expires_at" json:"cash_hold_expires_at,omitempty"`
	PaidAt             *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	PaymentProvider    *string       `db:"payment_provider" json:"payment_provider,omitempty"`
	PaymentID          *string       `db:"payment_id" json:"payment_id,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`

	// Reminder flags: set once the one-time visit reminder for the current
	// lead window has been delivered.
	LastReminderSentAt      *time.Time `db:"last_reminder_sent_at" json:"last_reminder_sent_at,omitempty"`
	LastReminderLeadMinutes *int       `db:"last_reminder_lead_minutes" json:"last_reminder_lead_minutes,omitempty"`
}

// DurationMinutes returns the booked duration.
func (b *Booking) DurationMinutes() int {
	return int(b.EndsAt.Sub(b.StartsAt) / time.Minute)
}

// IsHoldBlocking reports whether a reserved/pending booking still blocks its
// slot at the given instant. Legacy rows without a hold deadline block for
// holdMinutes after creation.
func (b *Booking) IsHoldBlocking(now time.Time, holdMinutes int) bool {
	if !b.Status.IsHold() {
		return b.Status.IsActive()
	}
	if b.CashHoldExpiresAt != nil {
		return b.CashHoldExpiresAt.After(now)
	}
	if holdMinutes < 1 {
		holdMinutes = 1
	}
	return b.CreatedAt.After(now.Add(-time.Duration(holdMinutes) * time.Minute))
}

// BookingItem is one ordered service line of a booking. Composition is
// canonical even for single-service bookings.
type BookingItem struct {
	ID         int64  `db:"id" json:"id"`
	BookingID  int64  `db:"booking_id" json:"booking_id"`
	ServiceID  string `db:"service_id" json:"service_id"`
	Position   int    `db:"position" json:"position"`
	PriceCents int64  `db:"price_cents" json:"price_cents"`
}

// BookingStatusHistory records one status transition. OldStatus is null only
// for the creation row.
type BookingStatusHistory struct {
	ID        int64          `db:"id" json:"id"`
	BookingID int64          `db:"booking_id" json:"booking_id"`
	OldStatus *BookingStatus `db:"old_status" json:"old_status,omitempty"`
	NewStatus BookingStatus  `db:"new_status" json:"new_status"`
	ChangedAt time.Time      `db:"changed_at" json:"changed_at"`
}

// BookingRating is the single client rating of a completed booking.
type BookingRating struct {
	ID        int64   `db:"id" json:"id"`
	BookingID int64   `db:"booking_id" json:"booking_id"`
	Rating    int     `db:"rating" json:"rating"`
	Comment   *string `db:"comment" json:"comment,omitempty"`
}

// BookingDetails is the joined snapshot used by notifications and the facade.
type BookingDetails struct {
	Booking
	ClientName       string `db:"client_name" json:"client_name"`
	ClientExternalID int64  `db:"client_external_id" json:"client_external_id"`
	ClientLocale     string `db:"client_locale" json:"client_locale"`
	MasterName       string `db:"master_name" json:"master_name"`
	MasterExternalID *int64 `db:"master_external_id" json:"master_external_id,omitempty"`
	ServiceNames     string `db:"service_names" json:"service_names"`
}
