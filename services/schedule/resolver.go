// Package schedule resolves working windows and enumerates bookable slots.
// All window math is done on minutes-since-midnight in the salon's local
// time zone; conversions to UTC happen at the slot boundary.
package schedule

import (
	"sort"
	"time"

	"salonbook/models"
)

// Window is one working interval [StartMin, EndMin) in minutes since local
// midnight.
type Window struct {
	StartMin int
	EndMin   int
}

// parseClock parses a strict "HH:MM" clock value. Hours 00-23, minutes
// 00-59, nothing else.
func parseClock(s string) (int, bool) {
	return models.ClockMinutes(s)
}

// normalizeWindows parses raw HH:MM pairs, dropping malformed entries and
// pairs with start >= end, and returns the remainder ordered by start.
// Touching or overlapping windows are unioned; rows stored before merge-on-
// write canonicalization must not split a continuous working period at the
// shared boundary.
func normalizeWindows(pairs [][2]string) []Window {
	var windows []Window
	for _, p := range pairs {
		start, ok := parseClock(p[0])
		if !ok {
			continue
		}
		end, ok := parseClock(p[1])
		if !ok || start >= end {
			continue
		}
		windows = append(windows, Window{StartMin: start, EndMin: end})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].StartMin < windows[j].StartMin })

	var merged []Window
	for _, w := range windows {
		if n := len(merged); n > 0 && w.StartMin <= merged[n-1].EndMin {
			if w.EndMin > merged[n-1].EndMin {
				merged[n-1].EndMin = w.EndMin
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// resolveWindows applies the exception-over-weekly precedence for one date.
// Any exception row for the date makes exceptions authoritative; a row with
// is_off, or no valid exception windows, means closed.
func resolveWindows(exceptions []models.ScheduleException, weekly []models.ScheduleWindow) []Window {
	if len(exceptions) > 0 {
		var pairs [][2]string
		for _, e := range exceptions {
			if e.IsOff {
				return nil
			}
			pairs = append(pairs, [2]string{e.StartTime, e.EndTime})
		}
		return normalizeWindows(pairs)
	}
	var pairs [][2]string
	for _, w := range weekly {
		pairs = append(pairs, [2]string{w.StartTime, w.EndTime})
	}
	return normalizeWindows(pairs)
}

// windowBounds converts a window on a local calendar date to UTC instants.
func windowBounds(date time.Time, w Window, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, w.StartMin/60, w.StartMin%60, 0, 0, loc)
	end := time.Date(y, m, d, w.EndMin/60, w.EndMin%60, 0, 0, loc)
	return start.UTC(), end.UTC()
}
