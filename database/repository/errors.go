package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/lib/pq"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrMasterNotFound    = errors.New("master not found")
	ErrServiceNotFound   = errors.New("service not found")
	ErrSettingNotFound   = errors.New("setting not found")
	ErrRatingExists      = errors.New("booking already rated")
	ErrSlotConflict      = errors.New("slot conflicts with an existing booking")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Postgres error codes that matter to the booking invariants.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
	pgSerializationFail  = "40001"
	pgDeadlockDetected   = "40P01"
)

// isConflictErr reports whether the error is an exclusion or unique
// constraint violation, i.e. the slot is already taken.
func isConflictErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgExclusionViolation || string(pqErr.Code) == pgUniqueViolation
	}
	return false
}

// isTransientErr reports whether the error is worth one retry: serialization
// failure, deadlock, or a dropped connection.
func isTransientErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgSerializationFail || string(pqErr.Code) == pgDeadlockDetected
	}
	return errors.Is(err, sql.ErrConnDone)
}

// withRetry runs fn and retries it once with jittered backoff when the first
// attempt fails transiently. Conflict errors are never retried.
func withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isTransientErr(err) {
		return err
	}
	backoff := 50*time.Millisecond + time.Duration(rand.Intn(100))*time.Millisecond
	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return fmt.Errorf("retry aborted: %w", ctx.Err())
	}
	return fn()
}
