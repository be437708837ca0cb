package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(base time.Time, hour, min int) time.Time {
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func labels(slots []time.Time) []string {
	return ClockLabels(slots, time.UTC)
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"09:00", 540, true},
		{"00:00", 0, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"9:00", 0, false},
		{"09-00", 0, false},
		{"ab:cd", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseClock(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestNormalizeWindowsDropsInvalidPairs(t *testing.T) {
	windows := normalizeWindows([][2]string{
		{"12:00", "10:00"}, // start >= end
		{"09:00", "09:00"}, // zero length
		{"14:00", "18:00"},
		{"bogus", "18:00"},
		{"08:00", "12:00"},
	})
	require.Len(t, windows, 2)
	assert.Equal(t, Window{StartMin: 8 * 60, EndMin: 12 * 60}, windows[0])
	assert.Equal(t, Window{StartMin: 14 * 60, EndMin: 18 * 60}, windows[1])
}

func TestNormalizeWindowsUnionsTouchingWindows(t *testing.T) {
	windows := normalizeWindows([][2]string{
		{"10:00", "12:00"},
		{"09:00", "10:00"},
		{"11:30", "13:00"}, // overlaps the previous union
		{"15:00", "18:00"},
	})
	require.Len(t, windows, 2)
	assert.Equal(t, Window{StartMin: 9 * 60, EndMin: 13 * 60}, windows[0])
	assert.Equal(t, Window{StartMin: 15 * 60, EndMin: 18 * 60}, windows[1])
}

func TestComputeSlotsSpanTouchingWindows(t *testing.T) {
	d := day(2026, time.September, 10)
	now := at(d, -24, 0)
	windows := resolveWindows(nil, []models.ScheduleWindow{
		{StartTime: "09:00", EndTime: "10:00"},
		{StartTime: "10:00", EndTime: "12:00"},
	})

	// A 90-minute composition fits twice in the continuous 09:00-12:00
	// period; the stored boundary at 10:00 must not split it.
	slots := computeSlots(windows, d, 90, nil, now, 10, 0, time.UTC)
	assert.Equal(t, []string{"09:00", "10:30"}, labels(slots))
}

func TestResolveWindowsExceptionPrecedence(t *testing.T) {
	weekly := []models.ScheduleWindow{{StartTime: "09:00", EndTime: "18:00"}}

	t.Run("no exceptions uses weekly", func(t *testing.T) {
		windows := resolveWindows(nil, weekly)
		require.Len(t, windows, 1)
		assert.Equal(t, 9*60, windows[0].StartMin)
	})

	t.Run("exception overrides weekly", func(t *testing.T) {
		exc := []models.ScheduleException{{StartTime: "12:00", EndTime: "15:00"}}
		windows := resolveWindows(exc, weekly)
		require.Len(t, windows, 1)
		assert.Equal(t, 12*60, windows[0].StartMin)
	})

	t.Run("day off closes regardless of weekly", func(t *testing.T) {
		exc := []models.ScheduleException{{IsOff: true}}
		assert.Empty(t, resolveWindows(exc, weekly))
	})
}

func TestComputeSlotsStepsByDuration(t *testing.T) {
	d := day(2026, time.September, 10)
	now := at(d, -24, 0) // the day before
	windows := []Window{{StartMin: 9 * 60, EndMin: 12 * 60}}

	slots := computeSlots(windows, d, 90, nil, now, 10, 0, time.UTC)
	assert.Equal(t, []string{"09:00", "10:30"}, labels(slots))
}

func TestComputeSlotsSkipsBlockedRange(t *testing.T) {
	d := day(2026, time.September, 10)
	now := at(d, -24, 0)
	windows := []Window{{StartMin: 9 * 60, EndMin: 12 * 60}}
	bookings := []models.Booking{{
		Status:   models.StatusConfirmed,
		StartsAt: at(d, 10, 0),
		EndsAt:   at(d, 11, 0),
	}}

	slots := computeSlots(windows, d, 60, bookings, now, 10, 0, time.UTC)
	assert.Equal(t, []string{"09:00", "11:00"}, labels(slots))
}

func TestComputeSlotsExpiredHoldDoesNotBlock(t *testing.T) {
	d := day(2026, time.September, 10)
	now := at(d, 8, 0)
	windows := []Window{{StartMin: 9 * 60, EndMin: 11 * 60}}
	pastDeadline := now.Add(-time.Minute)
	bookings := []models.Booking{{
		Status:            models.StatusReserved,
		StartsAt:          at(d, 9, 0),
		EndsAt:            at(d, 10, 0),
		CashHoldExpiresAt: &pastDeadline,
		CreatedAt:         now.Add(-30 * time.Minute),
	}}

	slots := computeSlots(windows, d, 60, bookings, now, 10, 0, time.UTC)
	assert.Equal(t, []string{"09:00", "10:00"}, labels(slots))
}

func TestComputeSlotsLiveHoldBlocks(t *testing.T) {
	d := day(2026, time.September, 10)
	now := at(d, 8, 0)
	windows := []Window{{StartMin: 9 * 60, EndMin: 11 * 60}}
	deadline := now.Add(5 * time.Minute)
	bookings := []models.Booking{{
		Status:            models.StatusReserved,
		StartsAt:          at(d, 9, 0),
		EndsAt:            at(d, 10, 0),
		CashHoldExpiresAt: &deadline,
		CreatedAt:         now,
	}}

	slots := computeSlots(windows, d, 60, bookings, now, 10, 0, time.UTC)
	assert.Equal(t, []string{"10:00"}, labels(slots))
}

func TestComputeSlotsLegacyHoldUsesCreationTime(t *testing.T) {
	d := day(2026, time.September, 10)
	now := at(d, 8, 0)
	windows := []Window{{StartMin: 9 * 60, EndMin: 11 * 60}}

	fresh := models.Booking{
		Status:    models.StatusReserved,
		StartsAt:  at(d, 9, 0),
		EndsAt:    at(d, 10, 0),
		CreatedAt: now.Add(-5 * time.Minute),
	}
	slots := computeSlots(windows, d, 60, []models.Booking{fresh}, now, 10, 0, time.UTC)
	assert.Equal(t, []string{"10:00"}, labels(slots), "hold inside the legacy window still blocks")

	stale := fresh
	stale.CreatedAt = now.Add(-15 * time.Minute)
	slots = computeSlots(windows, d, 60, []models.Booking{stale}, now, 10, 0, time.UTC)
	assert.Equal(t, []string{"09:00", "10:00"}, labels(slots), "stale legacy hold frees the slot")
}

func TestComputeSlotsSameDayLead(t *testing.T) {
	d := day(2026, time.September, 10)
	now := at(d, 10, 15)
	windows := []Window{{StartMin: 10 * 60, EndMin: 12 * 60}}

	// 15-minute grid to mirror a short composition.
	slots := computeSlots(windows, d, 15, nil, now, 10, 30, time.UTC)
	got := labels(slots)
	assert.NotContains(t, got, "10:30", "inside the lead window")
	assert.Contains(t, got, "10:45", "exactly at the lead boundary")
}

func TestComputeSlotsSkipsPastWindows(t *testing.T) {
	d := day(2026, time.September, 10)
	now := at(d, 13, 0)
	windows := []Window{
		{StartMin: 9 * 60, EndMin: 12 * 60},  // fully past
		{StartMin: 14 * 60, EndMin: 16 * 60}, // upcoming
	}

	slots := computeSlots(windows, d, 60, nil, now, 10, 0, time.UTC)
	assert.Equal(t, []string{"14:00", "15:00"}, labels(slots))
}

func TestComputeSlotsTerminalStatusesDoNotBlock(t *testing.T) {
	d := day(2026, time.September, 10)
	now := at(d, -24, 0)
	windows := []Window{{StartMin: 9 * 60, EndMin: 10 * 60}}

	for _, status := range []models.BookingStatus{models.StatusCancelled, models.StatusExpired, models.StatusNoShow, models.StatusDone} {
		bookings := []models.Booking{{Status: status, StartsAt: at(d, 9, 0), EndsAt: at(d, 10, 0)}}
		slots := computeSlots(windows, d, 60, bookings, now, 10, 0, time.UTC)
		assert.Equal(t, []string{"09:00"}, labels(slots), "status %s", status)
	}
}
