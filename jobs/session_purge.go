package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/shoebox/backoffice/internal/auth"
	jobmetrics "github.com/shoebox/backoffice/internal/jobs"
)

// NewSessionPurgeHandler returns the handler for TaskSessionPurge.
func NewSessionPurgeHandler(svc *auth.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskSessionPurge)
		removed, err := svc.PurgeExpiredSessions(ctx)
		if err != nil {
			logger.Error("session purge failed", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("session purge completed", slog.Int64("removed", removed))
		return tracker.End(nil)
	}
}
