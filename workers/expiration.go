package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"salonbook/config"
	"salonbook/utils"
)

// ExpireRepo is the repository surface of the expiration worker.
type ExpireRepo interface {
	ExpireOverdue(ctx context.Context, now time.Time, holdMinutes int) (int64, error)
}

// NewExpirationWorker builds the loop that expires overdue holds. Expiry is
// silent; no notifications are sent.
func NewExpirationWorker(repo ExpireRepo, settings Settings) *Worker {
	return NewWorker("expiration",
		secondsInterval(settings, config.KeyReservationExpireCheckSeconds, config.AppConfig.ReservationExpireCheckSeconds),
		func(ctx context.Context) {
			holdMinutes := settings.GetInt(ctx, config.KeyReservationHoldMinutes, config.AppConfig.ReservationHoldMinutes)
			n, err := repo.ExpireOverdue(ctx, time.Now().UTC(), holdMinutes)
			if err != nil {
				utils.GetLogger().Warn("hold expiry pass failed", zap.Error(err))
				return
			}
			if n > 0 {
				utils.GetLogger().Info("expired overdue holds", zap.Int64("count", n))
			}
		})
}
