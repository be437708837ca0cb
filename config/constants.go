package config

// Settings keys recognized by the core. Each key is runtime-mutable through
// the settings store; the boot-time default comes from the matching env var
// (settings-first precedence on read).
const (
	KeyReservationHoldMinutes        = "reservation_hold_minutes"
	KeyReservationExpireCheckSeconds = "reservation_expire_check_seconds"
	KeyClientCancelLockHours         = "client_cancel_lock_hours"
	KeyClientRescheduleLockHours     = "client_reschedule_lock_hours"
	KeySlotDurationMinutes           = "slot_duration_minutes"
	KeyCalendarMaxDaysAhead          = "calendar_max_days_ahead"
	KeySameDayLeadMinutes            = "same_day_lead_minutes"
	KeyOnlinePaymentDiscountPercent  = "online_payment_discount_percent"
	KeyTelegramPaymentsEnabled       = "telegram_payments_enabled"
	KeyRemindersCheckSeconds         = "reminders_check_seconds"
	KeyReminderLeadMinutes           = "reminder_lead_minutes"
	KeyCleanupCheckSeconds           = "cleanup_check_seconds"
	KeyNoShowGraceHours              = "no_show_grace_hours"
	KeyBusinessTimezone              = "business_timezone"
	KeyDefaultCurrency               = "default_currency"
	KeyDefaultLanguage               = "default_language"
)

// Pagination constants.
const (
	// DefaultPageLimit is the default number of items per page.
	DefaultPageLimit = 5

	// MaxPageLimit is the maximum number of items per page.
	MaxPageLimit = 50
)

// Rating constants.
const (
	// MinRating is the minimum rating value (1-5 scale).
	MinRating = 1

	// MaxRating is the maximum rating value (1-5 scale).
	MaxRating = 5
)

// Worker constants.
const (
	// WorkerInitialDelaySeconds is the delay before the first iteration of a
	// background worker after Start.
	WorkerInitialDelaySeconds = 2

	// WorkerStopTimeoutSeconds bounds how long Stop waits for an in-flight
	// iteration before hard-cancelling.
	WorkerStopTimeoutSeconds = 5
)
