package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"salonbook/models"
)

// BookingRepository is the only writer of booking rows. Every mutation runs
// inside a single serializable transaction and appends a status history row;
// the bookings_no_overlap exclusion constraint is the authoritative guard
// against double-booking.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// PriceItem is one per-service price snapshot line for a new hold.
type PriceItem struct {
	ServiceID  string
	PriceCents int64
}

// CreateHoldParams carries everything needed to insert a RESERVED booking.
type CreateHoldParams struct {
	UserID             int64
	MasterID           int64
	StartsAt           time.Time
	DurationMinutes    int
	HoldMinutes        int
	OriginalPriceCents int64
	FinalPriceCents    int64
	DiscountApplied    *string
	Items              []PriceItem
}

// BookingFilters represents filter options for paginated booking queries.
type BookingFilters struct {
	UserID   int64
	MasterID int64
	Statuses []models.BookingStatus
	FromTime time.Time
	ToTime   time.Time
	Limit    int
	Offset   int
}

func (r *BookingRepository) beginSerializable(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// appendHistory records one status transition inside the mutating transaction.
func appendHistory(ctx context.Context, tx *sqlx.Tx, bookingID int64, oldStatus *models.BookingStatus, newStatus models.BookingStatus) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO booking_status_history (booking_id, old_status, new_status, changed_at)
		VALUES ($1, $2, $3, NOW())
	`, bookingID, oldStatus, newStatus)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

// lockBooking loads a booking row FOR UPDATE inside tx.
func lockBooking(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Booking, error) {
	var b models.Booking
	err := tx.GetContext(ctx, &b, `SELECT * FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}
	return &b, nil
}

// CreateHold inserts a RESERVED booking with its items and creation history
// row. Returns ErrSlotConflict when the exclusion constraint rejects the
// time range.
func (r *BookingRepository) CreateHold(ctx context.Context, p CreateHoldParams) (*models.Booking, error) {
	var booking *models.Booking
	err := withRetry(ctx, func() error {
		tx, err := r.beginSerializable(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		endsAt := p.StartsAt.Add(time.Duration(p.DurationMinutes) * time.Minute)
		holdUntil := time.Now().UTC().Add(time.Duration(p.HoldMinutes) * time.Minute)

		var b models.Booking
		err = tx.GetContext(ctx, &b, `
			INSERT INTO bookings (
				user_id, master_id, status, starts_at, ends_at,
				original_price_cents, final_price_cents, discount_applied,
				cash_hold_expires_at, created_at
			) VALUES ($1, $2, 'reserved', $3, $4, $5, $6, $7, $8, NOW())
			RETURNING *
		`, p.UserID, p.MasterID, p.StartsAt.UTC(), endsAt.UTC(),
			p.OriginalPriceCents, p.FinalPriceCents, p.DiscountApplied, holdUntil)
		if err != nil {
			if isConflictErr(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("failed to create hold: %w", err)
		}

		for i, item := range p.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO booking_items (booking_id, service_id, position, price_cents)
				VALUES ($1, $2, $3, $4)
			`, b.ID, item.ServiceID, i, item.PriceCents)
			if err != nil {
				return fmt.Errorf("failed to create booking item: %w", err)
			}
		}

		if err := appendHistory(ctx, tx, b.ID, nil, models.StatusReserved); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			if isConflictErr(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("failed to commit hold: %w", err)
		}
		booking = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// transition applies a checked status change with optional extra column
// updates, appending history in the same transaction.
func (r *BookingRepository) transition(ctx context.Context, id int64, to models.BookingStatus, extraSet string, extraArgs ...interface{}) error {
	return withRetry(ctx, func() error {
		tx, err := r.beginSerializable(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		b, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if !models.IsValidTransition(b.Status, to) {
			return fmt.Errorf("%w: cannot change from '%s' to '%s'", ErrInvalidTransition, b.Status, to)
		}

		query := `UPDATE bookings SET status = $1`
		args := []interface{}{to}
		if extraSet != "" {
			query += ", " + extraSet
			args = append(args, extraArgs...)
		}
		query += fmt.Sprintf(" WHERE id = $%d", len(args)+1)
		args = append(args, id)

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isConflictErr(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("failed to update booking status: %w", err)
		}
		old := b.Status
		if err := appendHistory(ctx, tx, id, &old, to); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			if isConflictErr(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("failed to commit status change: %w", err)
		}
		return nil
	})
}

// ConfirmCash moves a hold to CONFIRMED and clears the hold deadline.
func (r *BookingRepository) ConfirmCash(ctx context.Context, id int64) error {
	return r.transition(ctx, id, models.StatusConfirmed, "cash_hold_expires_at = NULL")
}

// SetPendingPayment moves RESERVED to PENDING_PAYMENT, keeping the deadline.
func (r *BookingRepository) SetPendingPayment(ctx context.Context, id int64) error {
	return r.transition(ctx, id, models.StatusPendingPayment, "")
}

// MarkPaid records a successful payment.
func (r *BookingRepository) MarkPaid(ctx context.Context, id int64, provider, paymentID string) error {
	return r.transition(ctx, id, models.StatusPaid,
		"cash_hold_expires_at = NULL, paid_at = NOW(), payment_provider = $2, payment_id = $3",
		provider, paymentID)
}

// SetCancelled moves any non-terminal booking to CANCELLED.
func (r *BookingRepository) SetCancelled(ctx context.Context, id int64) error {
	return r.transition(ctx, id, models.StatusCancelled, "cash_hold_expires_at = NULL")
}

// SetDone marks a confirmed or paid booking as completed.
func (r *BookingRepository) SetDone(ctx context.Context, id int64) error {
	return r.transition(ctx, id, models.StatusDone, "")
}

// SetNoShow marks a confirmed or paid booking as a no-show.
func (r *BookingRepository) SetNoShow(ctx context.Context, id int64) error {
	return r.transition(ctx, id, models.StatusNoShow, "")
}

// UpdateStatus applies a general checked transition.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, to models.BookingStatus) error {
	extra := ""
	if to.IsTerminal() {
		extra = "cash_hold_expires_at = NULL"
	}
	return r.transition(ctx, id, to, extra)
}

// Reschedule moves a non-terminal booking to a new start, keeping its
// duration and status. The exclusion constraint re-checks overlap.
func (r *BookingRepository) Reschedule(ctx context.Context, id int64, newStartsAt time.Time) error {
	return withRetry(ctx, func() error {
		tx, err := r.beginSerializable(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		b, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if b.Status.IsTerminal() {
			return fmt.Errorf("%w: booking %d is %s", ErrInvalidTransition, id, b.Status)
		}

		duration := b.EndsAt.Sub(b.StartsAt)
		_, err = tx.ExecContext(ctx, `
			UPDATE bookings SET starts_at = $1, ends_at = $2 WHERE id = $3
		`, newStartsAt.UTC(), newStartsAt.UTC().Add(duration), id)
		if err != nil {
			if isConflictErr(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("failed to reschedule booking: %w", err)
		}
		if err := tx.Commit(); err != nil {
			if isConflictErr(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("failed to commit reschedule: %w", err)
		}
		return nil
	})
}

// ExpireOverdue transitions stale holds to EXPIRED and returns how many rows
// changed. Legacy rows without a hold deadline expire holdMinutes after
// creation. Candidates are grouped by (master_id, starts_at) and an advisory
// lock is taken per pair so the sweep serializes against concurrent creates
// targeting the same slot.
func (r *BookingRepository) ExpireOverdue(ctx context.Context, now time.Time, holdMinutes int) (int64, error) {
	if holdMinutes < 1 {
		holdMinutes = 1
	}
	var total int64
	err := withRetry(ctx, func() error {
		total = 0
		tx, err := r.beginSerializable(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		type candidate struct {
			ID        int64                `db:"id"`
			MasterID  int64                `db:"master_id"`
			StartsAt  time.Time            `db:"starts_at"`
			OldStatus models.BookingStatus `db:"status"`
		}
		var candidates []candidate
		err = tx.SelectContext(ctx, &candidates, `
			SELECT id, master_id, starts_at, status FROM bookings
			WHERE status IN ('reserved', 'pending_payment')
			AND (
				(cash_hold_expires_at IS NOT NULL AND cash_hold_expires_at <= $1)
				OR (cash_hold_expires_at IS NULL AND created_at <= $1 - make_interval(mins => $2))
			)
			ORDER BY master_id, starts_at
		`, now.UTC(), holdMinutes)
		if err != nil {
			return fmt.Errorf("failed to select overdue holds: %w", err)
		}
		if len(candidates) == 0 {
			return tx.Commit()
		}

		locked := map[string]bool{}
		for _, c := range candidates {
			key := fmt.Sprintf("%d:%d", c.MasterID, c.StartsAt.Unix())
			if !locked[key] {
				if _, err := tx.ExecContext(ctx,
					`SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
					return fmt.Errorf("failed to take advisory lock: %w", err)
				}
				locked[key] = true
			}

			res, err := tx.ExecContext(ctx, `
				UPDATE bookings SET status = 'expired', cash_hold_expires_at = NULL
				WHERE id = $1 AND status IN ('reserved', 'pending_payment')
			`, c.ID)
			if err != nil {
				return fmt.Errorf("failed to expire booking %d: %w", c.ID, err)
			}
			n, _ := res.RowsAffected()
			if n == 0 {
				continue
			}
			old := c.OldStatus
			if err := appendHistory(ctx, tx, c.ID, &old, models.StatusExpired); err != nil {
				return err
			}
			total += n
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// MarkNoShowPast transitions active bookings whose start is older than the
// grace period to NO_SHOW and returns the affected ids. Idempotent.
func (r *BookingRepository) MarkNoShowPast(ctx context.Context, now time.Time, graceHours int) ([]int64, error) {
	var ids []int64
	err := withRetry(ctx, func() error {
		ids = nil
		tx, err := r.beginSerializable(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		cutoff := now.UTC().Add(-time.Duration(graceHours) * time.Hour)
		type candidate struct {
			ID        int64                `db:"id"`
			OldStatus models.BookingStatus `db:"status"`
		}
		var candidates []candidate
		err = tx.SelectContext(ctx, &candidates, `
			SELECT id, status FROM bookings
			WHERE status IN ('confirmed', 'paid')
			AND starts_at < $1
			ORDER BY id
		`, cutoff)
		if err != nil {
			return fmt.Errorf("failed to select past bookings: %w", err)
		}

		for _, c := range candidates {
			if _, err := tx.ExecContext(ctx,
				`UPDATE bookings SET status = 'no_show' WHERE id = $1`, c.ID); err != nil {
				return fmt.Errorf("failed to mark no-show %d: %w", c.ID, err)
			}
			old := c.OldStatus
			if err := appendHistory(ctx, tx, c.ID, &old, models.StatusNoShow); err != nil {
				return err
			}
			ids = append(ids, c.ID)
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FindByID retrieves a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	err := r.db.GetContext(ctx, &b, `SELECT * FROM bookings WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to find booking by id: %w", err)
	}
	return &b, nil
}

// ListActiveByUser returns the user's upcoming active bookings.
func (r *BookingRepository) ListActiveByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT * FROM bookings
		WHERE user_id = $1
		AND status IN ('reserved', 'pending_payment', 'confirmed', 'paid')
		ORDER BY starts_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bookings: %w", err)
	}
	return bookings, nil
}

// ListHistoryByUser returns the user's most recent bookings across all
// statuses.
func (r *BookingRepository) ListHistoryByUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	var bookings []models.Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT * FROM bookings
		WHERE user_id = $1
		ORDER BY starts_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking history: %w", err)
	}
	return bookings, nil
}

// ListForMasterBetween loads all non-terminal bookings for a master within
// [from, to). One call covers a whole month for the availability index.
func (r *BookingRepository) ListForMasterBetween(ctx context.Context, masterID int64, from, to time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT * FROM bookings
		WHERE master_id = $1
		AND starts_at >= $2 AND starts_at < $3
		AND status IN ('reserved', 'pending_payment', 'confirmed', 'paid')
		ORDER BY starts_at ASC
	`, masterID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list master bookings: %w", err)
	}
	return bookings, nil
}

// GetPaginatedList retrieves bookings matching the filters.
func (r *BookingRepository) GetPaginatedList(ctx context.Context, filters BookingFilters) ([]models.Booking, error) {
	query := `SELECT * FROM bookings WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.UserID > 0 {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, filters.UserID)
		argCount++
	}
	if filters.MasterID > 0 {
		query += fmt.Sprintf(" AND master_id = $%d", argCount)
		args = append(args, filters.MasterID)
		argCount++
	}
	if len(filters.Statuses) > 0 {
		placeholders := make([]string, len(filters.Statuses))
		for i, status := range filters.Statuses {
			placeholders[i] = fmt.Sprintf("$%d", argCount)
			args = append(args, status)
			argCount++
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ", "))
	}
	if !filters.FromTime.IsZero() {
		query += fmt.Sprintf(" AND starts_at >= $%d", argCount)
		args = append(args, filters.FromTime.UTC())
		argCount++
	}
	if !filters.ToTime.IsZero() {
		query += fmt.Sprintf(" AND starts_at < $%d", argCount)
		args = append(args, filters.ToTime.UTC())
		argCount++
	}

	query += " ORDER BY starts_at DESC"

	limit := 20
	if filters.Limit > 0 {
		limit = filters.Limit
	}
	offset := 0
	if filters.Offset > 0 {
		offset = filters.Offset
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, offset)

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// Items returns the ordered service lines of a booking.
func (r *BookingRepository) Items(ctx context.Context, bookingID int64) ([]models.BookingItem, error) {
	var items []models.BookingItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM booking_items WHERE booking_id = $1 ORDER BY position ASC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking items: %w", err)
	}
	return items, nil
}

// GetServiceNames returns a comma-joined list of the booking's service names
// in item order.
func (r *BookingRepository) GetServiceNames(ctx context.Context, bookingID int64) (string, error) {
	var names []string
	err := r.db.SelectContext(ctx, &names, `
		SELECT s.name FROM booking_items bi
		JOIN services s ON s.id = bi.service_id
		WHERE bi.booking_id = $1
		ORDER BY bi.position ASC
	`, bookingID)
	if err != nil {
		return "", fmt.Errorf("failed to get booking service names: %w", err)
	}
	return strings.Join(names, ", "), nil
}

// GetDetails loads the joined snapshot used by notifications and the facade.
func (r *BookingRepository) GetDetails(ctx context.Context, bookingID int64) (*models.BookingDetails, error) {
	var d models.BookingDetails
	err := r.db.GetContext(ctx, &d, `
		SELECT b.*,
			u.name AS client_name,
			u.telegram_id AS client_external_id,
			COALESCE(u.locale, '') AS client_locale,
			m.name AS master_name,
			m.telegram_id AS master_external_id,
			COALESCE((
				SELECT string_agg(s.name, ', ' ORDER BY bi.position)
				FROM booking_items bi JOIN services s ON s.id = bi.service_id
				WHERE bi.booking_id = b.id
			), '') AS service_names
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN masters m ON m.id = b.master_id
		WHERE b.id = $1
	`, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking details: %w", err)
	}
	return &d, nil
}

// History returns the transition log of a booking, oldest first.
func (r *BookingRepository) History(ctx context.Context, bookingID int64) ([]models.BookingStatusHistory, error) {
	var rows []models.BookingStatusHistory
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM booking_status_history
		WHERE booking_id = $1 ORDER BY changed_at ASC, id ASC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	return rows, nil
}

// CreateRating persists the single rating of a completed booking.
func (r *BookingRepository) CreateRating(ctx context.Context, bookingID int64, rating int, comment *string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO booking_ratings (booking_id, rating, comment)
		VALUES ($1, $2, $3)
	`, bookingID, rating, comment)
	if err != nil {
		if isConflictErr(err) {
			return ErrRatingExists
		}
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

// GetRating returns the rating of a booking, or nil when absent.
func (r *BookingRepository) GetRating(ctx context.Context, bookingID int64) (*models.BookingRating, error) {
	var rating models.BookingRating
	err := r.db.GetContext(ctx, &rating, `
		SELECT * FROM booking_ratings WHERE booking_id = $1
	`, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &rating, nil
}

// ListDueReminders selects confirmed or paid bookings whose start falls
// within the lead window and whose reminder for the current lead has not
// been sent yet.
func (r *BookingRepository) ListDueReminders(ctx context.Context, now time.Time, leadMinutes int) ([]models.Booking, error) {
	horizon := now.UTC().Add(time.Duration(leadMinutes) * time.Minute)
	var bookings []models.Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT * FROM bookings
		WHERE status IN ('confirmed', 'paid')
		AND starts_at > $1 AND starts_at <= $2
		AND (last_reminder_sent_at IS NULL OR last_reminder_lead_minutes IS DISTINCT FROM $3)
		ORDER BY starts_at ASC
	`, now.UTC(), horizon, leadMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return bookings, nil
}

// MarkReminderSent flags a booking's reminder as delivered for the given
// lead window.
func (r *BookingRepository) MarkReminderSent(ctx context.Context, bookingID int64, sentAt time.Time, leadMinutes int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET last_reminder_sent_at = $1, last_reminder_lead_minutes = $2
		WHERE id = $3
	`, sentAt.UTC(), leadMinutes, bookingID)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}
