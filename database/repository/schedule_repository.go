package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"salonbook/config"
	"salonbook/models"
)

// ScheduleRepository handles weekly schedules and date exceptions.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// WeeklyWindows returns the master's windows for one weekday, ordered by
// start time.
func (r *ScheduleRepository) WeeklyWindows(ctx context.Context, masterID int64, dayOfWeek int) ([]models.ScheduleWindow, error) {
	var windows []models.ScheduleWindow
	err := r.db.SelectContext(ctx, &windows, `
		SELECT * FROM master_schedules
		WHERE master_id = $1 AND day_of_week = $2
		ORDER BY start_time ASC
	`, masterID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly windows: %w", err)
	}
	return windows, nil
}

// AllWeeklyWindows returns the master's full weekly schedule.
func (r *ScheduleRepository) AllWeeklyWindows(ctx context.Context, masterID int64) ([]models.ScheduleWindow, error) {
	var windows []models.ScheduleWindow
	err := r.db.SelectContext(ctx, &windows, `
		SELECT * FROM master_schedules
		WHERE master_id = $1
		ORDER BY day_of_week ASC, start_time ASC
	`, masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly schedule: %w", err)
	}
	return windows, nil
}

// ExceptionsFor returns the date-specific overrides for one date.
func (r *ScheduleRepository) ExceptionsFor(ctx context.Context, masterID int64, date time.Time) ([]models.ScheduleException, error) {
	var exceptions []models.ScheduleException
	err := r.db.SelectContext(ctx, &exceptions, `
		SELECT * FROM master_schedule_exceptions
		WHERE master_id = $1 AND date = $2
		ORDER BY start_time ASC
	`, masterID, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule exceptions: %w", err)
	}
	return exceptions, nil
}

// ExceptionsBetween returns overrides for a date range [from, to).
func (r *ScheduleRepository) ExceptionsBetween(ctx context.Context, masterID int64, from, to time.Time) ([]models.ScheduleException, error) {
	var exceptions []models.ScheduleException
	err := r.db.SelectContext(ctx, &exceptions, `
		SELECT * FROM master_schedule_exceptions
		WHERE master_id = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC, start_time ASC
	`, masterID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule exceptions: %w", err)
	}
	return exceptions, nil
}

// mergeGap is the adjacency below which stored windows collapse into one.
func mergeGap() int {
	return config.AppConfig.ScheduleMergeGapMinutes
}

// ReplaceWeekly rewrites the master's windows for one weekday. Windows are
// canonicalized before write: malformed or inverted pairs are dropped and
// windows within the configured adjacency gap are merged.
func (r *ScheduleRepository) ReplaceWeekly(ctx context.Context, masterID int64, dayOfWeek int, windows []models.ScheduleWindow) error {
	pairs := make([][2]string, 0, len(windows))
	for _, w := range windows {
		pairs = append(pairs, [2]string{w.StartTime, w.EndTime})
	}
	merged := models.MergeClockRanges(pairs, mergeGap())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM master_schedules WHERE master_id = $1 AND day_of_week = $2
	`, masterID, dayOfWeek)
	if err != nil {
		return fmt.Errorf("failed to clear weekly windows: %w", err)
	}
	for _, w := range merged {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO master_schedules (master_id, day_of_week, start_time, end_time)
			VALUES ($1, $2, $3, $4)
		`, masterID, dayOfWeek, w[0], w[1])
		if err != nil {
			return fmt.Errorf("failed to insert weekly window: %w", err)
		}
	}
	return tx.Commit()
}

// SetException rewrites the overrides for one date. An is_off row collapses
// the date to a single closed marker; otherwise window rows are canonicalized
// the same way as weekly windows.
func (r *ScheduleRepository) SetException(ctx context.Context, masterID int64, date time.Time, exceptions []models.ScheduleException) error {
	var reason *string
	isOff := false
	pairs := make([][2]string, 0, len(exceptions))
	for _, e := range exceptions {
		if reason == nil && e.Reason != nil {
			reason = e.Reason
		}
		if e.IsOff {
			isOff = true
			continue
		}
		pairs = append(pairs, [2]string{e.StartTime, e.EndTime})
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	day := date.Format("2006-01-02")
	_, err = tx.ExecContext(ctx, `
		DELETE FROM master_schedule_exceptions WHERE master_id = $1 AND date = $2
	`, masterID, day)
	if err != nil {
		return fmt.Errorf("failed to clear schedule exceptions: %w", err)
	}

	insert := func(start, end string, off bool) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO master_schedule_exceptions (master_id, date, start_time, end_time, is_off, reason)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, masterID, day, start, end, off, reason)
		return err
	}

	if isOff {
		if err := insert("00:00", "00:00", true); err != nil {
			return fmt.Errorf("failed to insert schedule exception: %w", err)
		}
		return tx.Commit()
	}
	for _, w := range models.MergeClockRanges(pairs, mergeGap()) {
		if err := insert(w[0], w[1], false); err != nil {
			return fmt.Errorf("failed to insert schedule exception: %w", err)
		}
	}
	return tx.Commit()
}
