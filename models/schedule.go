package models

import (
	"fmt"
	"sort"
	"time"
)

// ScheduleWindow is one working interval [StartTime, EndTime) of a master's
// weekly schedule. Times are local salon times ("HH:MM").
type ScheduleWindow struct {
	ID        int64  `db:"id" json:"id"`
	MasterID  int64  `db:"master_id" json:"master_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// ClockMinutes parses a strict "HH:MM" clock value into minutes since
// midnight. Hours 00-23, minutes 00-59, nothing else.
func ClockMinutes(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	digits := [4]int{}
	for i, pos := range [4]int{0, 1, 3, 4} {
		c := s[pos]
		if c < '0' || c > '9' {
			return 0, false
		}
		digits[i] = int(c - '0')
	}
	hour := digits[0]*10 + digits[1]
	min := digits[2]*10 + digits[3]
	if hour > 23 || min > 59 {
		return 0, false
	}
	return hour*60 + min, true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// MergeClockRanges canonicalizes HH:MM ranges for storage: malformed pairs
// and pairs with start >= end are dropped, the rest are ordered by start and
// ranges separated by at most gapMinutes are merged into one.
func MergeClockRanges(pairs [][2]string, gapMinutes int) [][2]string {
	if gapMinutes < 0 {
		gapMinutes = 0
	}
	type span struct{ start, end int }
	var spans []span
	for _, p := range pairs {
		start, ok := ClockMinutes(p[0])
		if !ok {
			continue
		}
		end, ok := ClockMinutes(p[1])
		if !ok || start >= end {
			continue
		}
		spans = append(spans, span{start, end})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var merged []span
	for _, sp := range spans {
		if n := len(merged); n > 0 && sp.start <= merged[n-1].end+gapMinutes {
			if sp.end > merged[n-1].end {
				merged[n-1].end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}

	out := make([][2]string, 0, len(merged))
	for _, sp := range merged {
		out = append(out, [2]string{FormatClock(sp.start), FormatClock(sp.end)})
	}
	return out
}

// ScheduleException overrides the weekly schedule for a specific date.
// IsOff marks the whole date as closed regardless of window times.
type ScheduleException struct {
	ID        int64     `db:"id" json:"id"`
	MasterID  int64     `db:"master_id" json:"master_id"`
	Date      time.Time `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	IsOff     bool      `db:"is_off" json:"is_off"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
}
