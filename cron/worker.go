package cron

import (
	"context"
	"fmt"
	"time"

	"meetbot/config"
	"meetbot/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the asynq connection for the meeting queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewMeetingMux routes meeting tasks to the pipeline.
func NewMeetingMux(pipeline *tasks.Pipeline, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeMeetingSubmit, handleMeetingSubmitTask(pipeline, logger))
	mux.HandleFunc(tasks.TypeMeetingReminder, handleMeetingReminderTask(pipeline, logger))
	return mux
}

// InitMeetingWorker runs the meeting worker in the background until ctx is done.
// The returned server is shut down by the caller.
func InitMeetingWorker(ctx context.Context, pipeline *tasks.Pipeline, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)
	mux := NewMeetingMux(pipeline, logger)

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("Starting meeting worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("Meeting worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("Meeting worker: max start attempts reached")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()
	return srv
}

func handleMeetingSubmitTask(pipeline *tasks.Pipeline, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		meeting, err := tasks.ParseMeetingPayload(task)
		if err != nil {
			logger.Error("Invalid meeting payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		logger.Info("Processing finalized meeting",
			zap.String("meetingID", meeting.ID),
			zap.String("organizer", meeting.Organizer),
			zap.Int("participants", len(meeting.ParticipantEmails)))

		if err := pipeline.Process(ctx, meeting); err != nil {
			logger.Error("Meeting pipeline failed", zap.String("meetingID", meeting.ID), zap.Error(err))
			return err
		}
		return nil
	}
}

func handleMeetingReminderTask(pipeline *tasks.Pipeline, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		meeting, err := tasks.ParseMeetingPayload(task)
		if err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		logger.Info("Sending meeting reminder", zap.String("meetingID", meeting.ID))
		if err := pipeline.Remind(ctx, meeting); err != nil {
			logger.Error("Failed to send reminder", zap.String("meetingID", meeting.ID), zap.Error(err))
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings the queue Redis periodically to surface failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				logger.Warn("Meeting queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
