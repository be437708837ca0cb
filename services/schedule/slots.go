package schedule

import (
	"context"
	"fmt"
	"time"

	"salonbook/config"
	"salonbook/models"
)

// ScheduleRepo is the schedule persistence surface the calculator needs.
type ScheduleRepo interface {
	WeeklyWindows(ctx context.Context, masterID int64, dayOfWeek int) ([]models.ScheduleWindow, error)
	AllWeeklyWindows(ctx context.Context, masterID int64) ([]models.ScheduleWindow, error)
	ExceptionsFor(ctx context.Context, masterID int64, date time.Time) ([]models.ScheduleException, error)
	ExceptionsBetween(ctx context.Context, masterID int64, from, to time.Time) ([]models.ScheduleException, error)
}

// BookingReader provides the reservations that block slots.
type BookingReader interface {
	ListForMasterBetween(ctx context.Context, masterID int64, from, to time.Time) ([]models.Booking, error)
}

// Settings is the runtime-mutable knob surface consulted per calculation.
type Settings interface {
	GetInt(ctx context.Context, key string, def int) int
	GetString(ctx context.Context, key string, def string) string
}

// ScheduleService resolves working windows and enumerates bookable slots.
type ScheduleService interface {
	WindowsFor(ctx context.Context, masterID int64, date time.Time) ([]Window, error)
	SlotsFor(ctx context.Context, masterID int64, date time.Time, durationMinutes int) ([]time.Time, error)
	AvailableDays(ctx context.Context, masterID int64, year int, month time.Month, durationMinutes int) ([]int, error)
	Location(ctx context.Context) *time.Location
}

// DefaultScheduleService implements ScheduleService over the repositories.
type DefaultScheduleService struct {
	Schedules ScheduleRepo
	Bookings  BookingReader
	Settings  Settings
}

// NewDefaultScheduleService wires the calculator.
func NewDefaultScheduleService(schedules ScheduleRepo, bookings BookingReader, settings Settings) *DefaultScheduleService {
	return &DefaultScheduleService{Schedules: schedules, Bookings: bookings, Settings: settings}
}

// Location returns the salon's local time zone, falling back to UTC when the
// configured name does not resolve.
func (s *DefaultScheduleService) Location(ctx context.Context) *time.Location {
	name := s.Settings.GetString(ctx, config.KeyBusinessTimezone, config.AppConfig.BusinessTimezone)
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WindowsFor returns the ordered working windows for a master on a local
// calendar date. Date exceptions are authoritative when present.
func (s *DefaultScheduleService) WindowsFor(ctx context.Context, masterID int64, date time.Time) ([]Window, error) {
	exceptions, err := s.Schedules.ExceptionsFor(ctx, masterID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve windows: %w", err)
	}
	var weekly []models.ScheduleWindow
	if len(exceptions) == 0 {
		weekly, err = s.Schedules.WeeklyWindows(ctx, masterID, int(date.Weekday()))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve windows: %w", err)
		}
	}
	return resolveWindows(exceptions, weekly), nil
}

// SlotsFor enumerates candidate start times (UTC) for a master on a local
// calendar date with the given aggregate duration. Invalid inputs yield an
// empty list rather than an error.
func (s *DefaultScheduleService) SlotsFor(ctx context.Context, masterID int64, date time.Time, durationMinutes int) ([]time.Time, error) {
	if durationMinutes <= 0 {
		return nil, nil
	}
	loc := s.Location(ctx)
	windows, err := s.WindowsFor(ctx, masterID, date)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, nil
	}

	y, m, d := date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	bookings, err := s.Bookings.ListForMasterBetween(ctx, masterID, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}

	now := time.Now().UTC()
	holdMinutes := s.Settings.GetInt(ctx, config.KeyReservationHoldMinutes, config.AppConfig.ReservationHoldMinutes)
	leadMinutes := s.Settings.GetInt(ctx, config.KeySameDayLeadMinutes, config.AppConfig.SameDayLeadMinutes)
	return computeSlots(windows, dayStart, durationMinutes, bookings, now, holdMinutes, leadMinutes, loc), nil
}

// AvailableDays returns the sorted day numbers of the month with at least one
// candidate slot. Bookings and schedule data are each loaded once; days are
// simulated in memory.
func (s *DefaultScheduleService) AvailableDays(ctx context.Context, masterID int64, year int, month time.Month, durationMinutes int) ([]int, error) {
	if durationMinutes <= 0 {
		return nil, nil
	}
	loc := s.Location(ctx)
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	weekly, err := s.Schedules.AllWeeklyWindows(ctx, masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly schedule: %w", err)
	}
	weeklyByDay := make(map[int][]models.ScheduleWindow)
	for _, w := range weekly {
		weeklyByDay[w.DayOfWeek] = append(weeklyByDay[w.DayOfWeek], w)
	}

	exceptions, err := s.Schedules.ExceptionsBetween(ctx, masterID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule exceptions: %w", err)
	}
	exceptionsByDay := make(map[int][]models.ScheduleException)
	for _, e := range exceptions {
		exceptionsByDay[e.Date.Day()] = append(exceptionsByDay[e.Date.Day()], e)
	}

	bookings, err := s.Bookings.ListForMasterBetween(ctx, masterID, monthStart.UTC(), monthEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}

	now := time.Now().UTC()
	holdMinutes := s.Settings.GetInt(ctx, config.KeyReservationHoldMinutes, config.AppConfig.ReservationHoldMinutes)
	leadMinutes := s.Settings.GetInt(ctx, config.KeySameDayLeadMinutes, config.AppConfig.SameDayLeadMinutes)
	maxAhead := s.Settings.GetInt(ctx, config.KeyCalendarMaxDaysAhead, config.AppConfig.CalendarMaxDaysAhead)
	horizon := now.AddDate(0, 0, maxAhead)

	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	var days []int
	for day := 1; day <= daysInMonth; day++ {
		dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
		if dayStart.UTC().After(horizon) {
			break
		}
		var windows []Window
		if exc, ok := exceptionsByDay[day]; ok {
			windows = resolveWindows(exc, nil)
		} else {
			windows = resolveWindows(nil, weeklyByDay[int(dayStart.Weekday())])
		}
		if len(windows) == 0 {
			continue
		}
		slots := computeSlots(windows, dayStart, durationMinutes, bookings, now, holdMinutes, leadMinutes, loc)
		if len(slots) > 0 {
			days = append(days, day)
		}
	}
	return days, nil
}

// computeSlots runs the slot simulation for one local calendar day. dayStart
// must be local midnight; returned starts are UTC instants in ascending order.
func computeSlots(windows []Window, dayStart time.Time, durationMinutes int, bookings []models.Booking, now time.Time, holdMinutes, leadMinutes int, loc *time.Location) []time.Time {
	d := time.Duration(durationMinutes) * time.Minute

	// Pre-filter to the ranges that actually block.
	type span struct{ start, end time.Time }
	var blocked []span
	for _, b := range bookings {
		if b.EndsAt.IsZero() || !b.EndsAt.After(b.StartsAt) {
			continue
		}
		if b.IsHoldBlocking(now, holdMinutes) {
			blocked = append(blocked, span{b.StartsAt, b.EndsAt})
		}
	}

	sameDay := dayStart.Year() == now.In(loc).Year() && dayStart.YearDay() == now.In(loc).YearDay()

	var slots []time.Time
	for _, w := range windows {
		ws, we := windowBounds(dayStart, w, loc)
		if !we.After(now) {
			continue
		}
		for t := ws; !t.Add(d).After(we); t = t.Add(d) {
			if sameDay && leadMinutes > 0 && t.Sub(now) < time.Duration(leadMinutes)*time.Minute {
				continue
			}
			end := t.Add(d)
			free := true
			for _, b := range blocked {
				if t.Before(b.end) && b.start.Before(end) {
					free = false
					break
				}
			}
			if free {
				slots = append(slots, t)
			}
		}
	}
	return slots
}

// ClockLabels formats slot instants as local "HH:MM" labels.
func ClockLabels(slots []time.Time, loc *time.Location) []string {
	labels := make([]string, 0, len(slots))
	for _, t := range slots {
		labels = append(labels, t.In(loc).Format("15:04"))
	}
	return labels
}
