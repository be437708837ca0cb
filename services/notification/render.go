package notification

import (
	"fmt"
	"strings"
	"time"

	"salonbook/models"
)

// Supported message languages. Anything else falls back to English.
const (
	langEN = "en"
	langUK = "uk"
	langRU = "ru"
)

var headlines = map[Event]map[string]string{
	EventReserved: {
		langEN: "Your appointment is on hold",
		langUK: "Ваш запис утримується",
		langRU: "Ваша запись удерживается",
	},
	EventConfirmed: {
		langEN: "Your appointment is confirmed",
		langUK: "Ваш запис підтверджено",
		langRU: "Ваша запись подтверждена",
	},
	EventPaid: {
		langEN: "Payment received, appointment confirmed",
		langUK: "Оплату отримано, запис підтверджено",
		langRU: "Оплата получена, запись подтверждена",
	},
	EventCashConfirmed: {
		langEN: "Appointment confirmed, payment at the salon",
		langUK: "Запис підтверджено, оплата в салоні",
		langRU: "Запись подтверждена, оплата в салоне",
	},
	EventCancelled: {
		langEN: "Appointment cancelled",
		langUK: "Запис скасовано",
		langRU: "Запись отменена",
	},
	EventRescheduledByClient: {
		langEN: "Appointment rescheduled by the client",
		langUK: "Клієнт переніс запис",
		langRU: "Клиент перенёс запись",
	},
	EventRescheduledByMaster: {
		langEN: "Your appointment was rescheduled",
		langUK: "Ваш запис перенесено",
		langRU: "Ваша запись перенесена",
	},
	EventNoShow: {
		langEN: "Appointment marked as no-show",
		langUK: "Запис позначено як неявку",
		langRU: "Запись отмечена как неявка",
	},
	EventReminder: {
		langEN: "Reminder: upcoming appointment",
		langUK: "Нагадування: незабаром запис",
		langRU: "Напоминание: скоро запись",
	},
}

var holdUntilLabel = map[string]string{
	langEN: "Held until %s",
	langUK: "Утримується до %s",
	langRU: "Удерживается до %s",
}

// normalizeLang reduces a locale tag to a supported language code.
func normalizeLang(locale string) string {
	l := strings.ToLower(locale)
	switch {
	case strings.HasPrefix(l, langUK):
		return langUK
	case strings.HasPrefix(l, langRU):
		return langRU
	default:
		return langEN
	}
}

// render produces the full message text for one event and locale. An unknown
// event yields the empty string.
func render(event Event, d *models.BookingDetails, locale, tz, currency string) string {
	byLang, ok := headlines[event]
	if !ok {
		return ""
	}
	lang := normalizeLang(locale)

	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	starts := d.StartsAt.In(loc)

	var b strings.Builder
	b.WriteString(byLang[lang])
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🗓 %s %s\n", starts.Format("02.01.2006"), starts.Format("15:04"))
	if d.ServiceNames != "" {
		fmt.Fprintf(&b, "💇 %s\n", d.ServiceNames)
	}
	fmt.Fprintf(&b, "👤 %s\n", d.MasterName)
	if d.FinalPriceCents != nil {
		fmt.Fprintf(&b, "💰 %.2f %s\n", float64(*d.FinalPriceCents)/100, currency)
	}
	if event == EventReserved && d.CashHoldExpiresAt != nil {
		fmt.Fprintf(&b, holdUntilLabel[lang]+"\n", d.CashHoldExpiresAt.In(loc).Format("15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}
