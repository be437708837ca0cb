package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"salonbook/config"
	"salonbook/models"
	"salonbook/services/notification"
	"salonbook/utils"
)

// CleanupRepo is the repository surface of the cleanup worker.
type CleanupRepo interface {
	MarkNoShowPast(ctx context.Context, now time.Time, graceHours int) ([]int64, error)
	GetDetails(ctx context.Context, bookingID int64) (*models.BookingDetails, error)
}

// Notifier fans out booking events.
type Notifier interface {
	Notify(ctx context.Context, event notification.Event, bookingID int64, recipients []int64)
}

// NewCleanupWorker builds the loop that turns abandoned past bookings into
// no-shows and notifies client, master and admins.
func NewCleanupWorker(repo CleanupRepo, notifier Notifier, settings Settings) *Worker {
	return NewWorker("cleanup",
		secondsInterval(settings, config.KeyCleanupCheckSeconds, config.AppConfig.CleanupCheckSeconds),
		func(ctx context.Context) {
			graceHours := settings.GetInt(ctx, config.KeyNoShowGraceHours, config.AppConfig.NoShowGraceHours)
			ids, err := repo.MarkNoShowPast(ctx, time.Now().UTC(), graceHours)
			if err != nil {
				utils.GetLogger().Warn("no-show cleanup pass failed", zap.Error(err))
				return
			}
			for _, id := range ids {
				d, err := repo.GetDetails(ctx, id)
				if err != nil {
					utils.GetLogger().Warn("no-show notification skipped",
						zap.Int64("booking_id", id), zap.Error(err))
					continue
				}
				recipients := []int64{d.ClientExternalID}
				if d.MasterExternalID != nil {
					recipients = append(recipients, *d.MasterExternalID)
				}
				recipients = append(recipients, config.AdminIDList()...)
				notifier.Notify(ctx, notification.EventNoShow, id, recipients)
			}
			if len(ids) > 0 {
				utils.GetLogger().Info("marked no-shows", zap.Int("count", len(ids)))
			}
		})
}
