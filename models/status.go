package models

// BookingStatus values match the Postgres enum labels (lowercase).
type BookingStatus string

const (
	StatusReserved       BookingStatus = "reserved"
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusPaid           BookingStatus = "paid"
	StatusCancelled      BookingStatus = "cancelled"
	StatusDone           BookingStatus = "done"
	StatusNoShow         BookingStatus = "no_show"
	StatusExpired        BookingStatus = "expired"
)

// AllBookingStatuses lists every legal status label.
var AllBookingStatuses = []BookingStatus{
	StatusReserved,
	StatusPendingPayment,
	StatusConfirmed,
	StatusPaid,
	StatusCancelled,
	StatusDone,
	StatusNoShow,
	StatusExpired,
}

// ActiveStatuses are the statuses that occupy a slot and participate in the
// exclusion constraint.
var ActiveStatuses = []BookingStatus{
	StatusReserved,
	StatusPendingPayment,
	StatusConfirmed,
	StatusPaid,
}

// HoldStatuses are the statuses carrying a cash_hold_expires_at deadline.
var HoldStatuses = []BookingStatus{
	StatusReserved,
	StatusPendingPayment,
}

// validTransitions defines the allowed status changes.
// Key: current status, value: allowed next statuses.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusReserved:       {StatusPendingPayment, StatusConfirmed, StatusPaid, StatusCancelled, StatusExpired},
	StatusPendingPayment: {StatusPaid, StatusCancelled, StatusExpired},
	StatusConfirmed:      {StatusPaid, StatusDone, StatusNoShow, StatusCancelled},
	StatusPaid:           {StatusDone, StatusNoShow, StatusCancelled},
	StatusCancelled:      {},
	StatusDone:           {},
	StatusNoShow:         {},
	StatusExpired:        {},
}

// IsValidTransition reports whether moving from one status to another is
// allowed. Reschedules do not change status and are not transitions.
func IsValidTransition(from, to BookingStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status never transitions out.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusDone, StatusNoShow, StatusExpired:
		return true
	}
	return false
}

// IsActive reports whether a status occupies its slot.
func (s BookingStatus) IsActive() bool {
	switch s {
	case StatusReserved, StatusPendingPayment, StatusConfirmed, StatusPaid:
		return true
	}
	return false
}

// IsHold reports whether a status carries a hold deadline.
func (s BookingStatus) IsHold() bool {
	return s == StatusReserved || s == StatusPendingPayment
}

func (s BookingStatus) String() string { return string(s) }
