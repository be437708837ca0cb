package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransitions(t *testing.T) {
	allowed := []struct{ from, to BookingStatus }{
		{StatusReserved, StatusPendingPayment},
		{StatusReserved, StatusConfirmed},
		{StatusReserved, StatusPaid},
		{StatusReserved, StatusCancelled},
		{StatusReserved, StatusExpired},
		{StatusPendingPayment, StatusPaid},
		{StatusPendingPayment, StatusCancelled},
		{StatusPendingPayment, StatusExpired},
		{StatusConfirmed, StatusPaid},
		{StatusConfirmed, StatusDone},
		{StatusConfirmed, StatusNoShow},
		{StatusConfirmed, StatusCancelled},
		{StatusPaid, StatusDone},
		{StatusPaid, StatusNoShow},
		{StatusPaid, StatusCancelled},
	}
	allowedSet := make(map[[2]BookingStatus]bool, len(allowed))
	for _, tr := range allowed {
		allowedSet[[2]BookingStatus{tr.from, tr.to}] = true
	}

	for _, from := range AllBookingStatuses {
		for _, to := range AllBookingStatuses {
			want := allowedSet[[2]BookingStatus{from, to}]
			assert.Equal(t, want, IsValidTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesNeverTransition(t *testing.T) {
	for _, from := range []BookingStatus{StatusCancelled, StatusDone, StatusNoShow, StatusExpired} {
		assert.True(t, from.IsTerminal())
		for _, to := range AllBookingStatuses {
			assert.False(t, IsValidTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestUnknownStatusTransitions(t *testing.T) {
	assert.False(t, IsValidTransition("bogus", StatusPaid))
	assert.False(t, IsValidTransition(StatusReserved, "bogus"))
}

func TestStatusClassification(t *testing.T) {
	assert.True(t, StatusReserved.IsActive())
	assert.True(t, StatusPendingPayment.IsHold())
	assert.False(t, StatusConfirmed.IsHold())
	assert.True(t, StatusConfirmed.IsActive())
	assert.False(t, StatusExpired.IsActive())
	assert.False(t, StatusReserved.IsTerminal())
}
