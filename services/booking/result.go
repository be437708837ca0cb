package booking

import "salonbook/models"

// Stable error codes surfaced to façades.
const (
	CodeMasterRequired            = "master_required"
	CodeServiceRequired           = "service_required"
	CodeSlotUnavailable           = "slot_unavailable"
	CodeSlotInPast                = "slot_in_past"
	CodeConflict                  = "conflict"
	CodeBookingNotFound           = "booking_not_found"
	CodeBookingNotActive          = "booking_not_active"
	CodeCancelTooClose            = "cancel_too_close"
	CodeRescheduleTooClose        = "reschedule_too_close"
	CodeAlreadyRated              = "already_rated"
	CodeRatingOnlyAfterDone       = "rating_only_after_done"
	CodeRatingInvalidValue        = "rating_invalid_value"
	CodeInvoiceMissingPrice       = "invoice_missing_price"
	CodeOnlinePaymentsUnavailable = "online_payments_unavailable"
	CodeUnauthorized              = "unauthorized"
)

// Result is the outcome of one orchestrator operation. Code is set only when
// OK is false and is one of the stable error codes above.
type Result struct {
	OK         bool                   `json:"ok"`
	Code       string                 `json:"error_code,omitempty"`
	Booking    *models.BookingDetails `json:"booking,omitempty"`
	InvoiceURL string                 `json:"invoice_url,omitempty"`
}

func failure(code string) Result {
	return Result{Code: code}
}

func success(details *models.BookingDetails) Result {
	return Result{OK: true, Booking: details}
}
