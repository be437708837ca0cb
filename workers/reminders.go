package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"salonbook/config"
	"salonbook/models"
	"salonbook/utils"
)

// ReminderRepo is the repository surface of the reminder worker.
type ReminderRepo interface {
	ListDueReminders(ctx context.Context, now time.Time, leadMinutes int) ([]models.Booking, error)
	MarkReminderSent(ctx context.Context, bookingID int64, sentAt time.Time, leadMinutes int) error
}

// ReminderSender delivers one visit reminder and reports failure so an
// unsent reminder is retried on the next tick.
type ReminderSender interface {
	SendReminder(ctx context.Context, bookingID int64) error
}

// NewReminderWorker builds the loop that sends one-time visit reminders
// within the configured lead window. The sent flag is written only after a
// successful hand-off.
func NewReminderWorker(repo ReminderRepo, sender ReminderSender, settings Settings) *Worker {
	return NewWorker("reminders",
		secondsInterval(settings, config.KeyRemindersCheckSeconds, config.AppConfig.RemindersCheckSeconds),
		func(ctx context.Context) {
			now := time.Now().UTC()
			leadMinutes := settings.GetInt(ctx, config.KeyReminderLeadMinutes, config.AppConfig.ReminderLeadMinutes)
			due, err := repo.ListDueReminders(ctx, now, leadMinutes)
			if err != nil {
				utils.GetLogger().Warn("reminder pass failed", zap.Error(err))
				return
			}
			for _, b := range due {
				if err := sender.SendReminder(ctx, b.ID); err != nil {
					utils.GetLogger().Warn("reminder send failed, will retry",
						zap.Int64("booking_id", b.ID), zap.Error(err))
					continue
				}
				if err := repo.MarkReminderSent(ctx, b.ID, now, leadMinutes); err != nil {
					utils.GetLogger().Warn("reminder flag update failed",
						zap.Int64("booking_id", b.ID), zap.Error(err))
				}
			}
		})
}
