// Package notification renders and delivers booking messages. It is the only
// place that formats user-visible booking text; delivery is best effort and
// never fails the calling operation.
package notification

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"salonbook/config"
	"salonbook/models"
	"salonbook/utils"
)

// Event identifies a booking lifecycle notification.
type Event string

const (
	EventReserved             Event = "reserved"
	EventConfirmed            Event = "confirmed"
	EventPaid                 Event = "paid"
	EventCashConfirmed        Event = "cash_confirmed"
	EventCancelled            Event = "cancelled"
	EventRescheduledByClient  Event = "rescheduled_by_client"
	EventRescheduledByMaster  Event = "rescheduled_by_master"
	EventNoShow               Event = "no_show"
	EventReminder             Event = "reminder"
)

// DetailsRepo fetches the joined booking snapshot used for rendering.
type DetailsRepo interface {
	GetDetails(ctx context.Context, bookingID int64) (*models.BookingDetails, error)
}

// Settings is the runtime-mutable knob surface.
type Settings interface {
	GetString(ctx context.Context, key string, def string) string
}

// Messenger delivers one rendered message to an external messaging id.
type Messenger interface {
	Send(ctx context.Context, externalID int64, text string) error
}

// NotificationService dispatches booking events to recipients.
type NotificationService interface {
	Notify(ctx context.Context, event Event, bookingID int64, recipients []int64)
}

// DefaultNotificationService fetches the booking snapshot once, renders a
// localized message per recipient and enqueues delivery. Without a queue
// client it sends inline through the Messenger.
type DefaultNotificationService struct {
	Bookings  DetailsRepo
	Settings  Settings
	Queue     *asynq.Client
	Messenger Messenger
}

// NewDefaultNotificationService wires the dispatcher.
func NewDefaultNotificationService(bookings DetailsRepo, settings Settings, queue *asynq.Client, messenger Messenger) *DefaultNotificationService {
	return &DefaultNotificationService{Bookings: bookings, Settings: settings, Queue: queue, Messenger: messenger}
}

// Notify renders the event for every distinct recipient and hands the
// messages to the delivery queue. Failures are logged only.
func (n *DefaultNotificationService) Notify(ctx context.Context, event Event, bookingID int64, recipients []int64) {
	logger := utils.GetLogger()

	details, err := n.Bookings.GetDetails(ctx, bookingID)
	if err != nil {
		logger.Warn("notification snapshot load failed",
			zap.Int64("booking_id", bookingID), zap.String("event", string(event)), zap.Error(err))
		return
	}

	defaultLang := n.Settings.GetString(ctx, config.KeyDefaultLanguage, config.AppConfig.DefaultLanguage)
	tz := n.Settings.GetString(ctx, config.KeyBusinessTimezone, config.AppConfig.BusinessTimezone)
	currency := n.Settings.GetString(ctx, config.KeyDefaultCurrency, config.AppConfig.DefaultCurrency)

	seen := make(map[int64]struct{}, len(recipients))
	for _, recipient := range recipients {
		if recipient == 0 {
			continue
		}
		if _, ok := seen[recipient]; ok {
			continue
		}
		seen[recipient] = struct{}{}

		lang := defaultLang
		if recipient == details.ClientExternalID && details.ClientLocale != "" {
			lang = details.ClientLocale
		}
		text := render(event, details, lang, tz, currency)
		if text == "" {
			continue
		}
		if err := n.deliver(ctx, recipient, text); err != nil {
			logger.Warn("notification delivery failed",
				zap.Int64("recipient", recipient), zap.Int64("booking_id", bookingID),
				zap.String("event", string(event)), zap.Error(err))
		}
	}
}

// SendReminder renders and delivers the visit reminder to the booking's
// client. Unlike Notify it reports delivery failure so the caller can retry
// on the next tick.
func (n *DefaultNotificationService) SendReminder(ctx context.Context, bookingID int64) error {
	details, err := n.Bookings.GetDetails(ctx, bookingID)
	if err != nil {
		return err
	}
	lang := details.ClientLocale
	if lang == "" {
		lang = n.Settings.GetString(ctx, config.KeyDefaultLanguage, config.AppConfig.DefaultLanguage)
	}
	tz := n.Settings.GetString(ctx, config.KeyBusinessTimezone, config.AppConfig.BusinessTimezone)
	currency := n.Settings.GetString(ctx, config.KeyDefaultCurrency, config.AppConfig.DefaultCurrency)
	text := render(EventReminder, details, lang, tz, currency)
	return n.deliver(ctx, details.ClientExternalID, text)
}

func (n *DefaultNotificationService) deliver(ctx context.Context, recipient int64, text string) error {
	if n.Queue != nil {
		task, err := NewSendTask(SendPayload{Recipient: recipient, Text: text})
		if err != nil {
			return err
		}
		if _, err = n.Queue.EnqueueContext(ctx, task); err == nil {
			return nil
		}
		utils.GetLogger().Warn("notification enqueue failed, sending inline",
			zap.Int64("recipient", recipient), zap.Error(err))
	}
	if n.Messenger == nil {
		return nil
	}
	return n.Messenger.Send(ctx, recipient, text)
}

// TypeNotifySend is the asynq task type for one rendered message.
const TypeNotifySend = "notify:send"

// SendPayload is the queued delivery unit.
type SendPayload struct {
	Recipient int64  `json:"recipient"`
	Text      string `json:"text"`
}

// NewSendTask builds the queue task for one message.
func NewSendTask(p SendPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotifySend, b), nil
}
