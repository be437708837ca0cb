package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"salonbook/config"
	"salonbook/utils"
)

// NewQueueClient builds the asynq client for the notification queue.
func NewQueueClient() *asynq.Client {
	return asynq.NewClient(queueRedisOpt())
}

func queueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotifyDB,
	}
}

// InitDeliveryWorker runs the asynq consumer that hands queued messages to
// the Messenger. Start failures are retried with backoff in background.
func InitDeliveryWorker(messenger Messenger) {
	srv := asynq.NewServer(
		queueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotifySend, handleSendTask(messenger))

	go func() {
		const maxAttempts = 5
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("notification delivery worker failed to start (attempt %d/%d): %v", attempt, maxAttempts, err)
				if attempt == maxAttempts {
					log.Fatal("notification delivery worker exhausted start attempts")
				}
				time.Sleep(time.Duration(attempt*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleSendTask(messenger Messenger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()
		var p SendPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Warn("invalid notification payload", zap.Error(err))
			return err
		}
		if err := messenger.Send(ctx, p.Recipient, p.Text); err != nil {
			logger.Warn("notification delivery failed",
				zap.Int64("recipient", p.Recipient), zap.Error(err))
			return err
		}
		return nil
	}
}

// LogMessenger is the delivery fallback used when no messaging transport is
// configured; it records the message instead of sending it.
type LogMessenger struct{}

func (LogMessenger) Send(_ context.Context, externalID int64, text string) error {
	utils.GetLogger().Info("notification",
		zap.Int64("recipient", externalID), zap.String("text", text))
	return nil
}
