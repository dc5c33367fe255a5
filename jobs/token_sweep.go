package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/taskloop/taskloop/internal/auth"
)

// TokenSweepJob clears verification and reset token pairs whose expiry has
// passed, so an unconsumed token never leaves a dangling hash behind.
type TokenSweepJob struct {
	store  auth.Store
	logger *slog.Logger
}

// NewTokenSweepJob constructs the sweep job.
func NewTokenSweepJob(store auth.Store, logger *slog.Logger) *TokenSweepJob {
	return &TokenSweepJob{store: store, logger: logger}
}

// Handle processes TaskTypeTokenSweep tasks.
func (j *TokenSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	cleared, err := j.store.PurgeExpiredActionTokens(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error("token sweep failed", slog.Any("error", err))
		return err
	}
	if cleared > 0 {
		j.logger.Info("token sweep cleared expired pairs", slog.Int("cleared", cleared))
	}
	return nil
}
