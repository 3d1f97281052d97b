package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/shoebox/backoffice/internal/audit"
	jobmetrics "github.com/shoebox/backoffice/internal/jobs"
)

// NewAuditPruneHandler returns the handler for TaskAuditPrune.
func NewAuditPruneHandler(svc *audit.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Retention <= 0 {
			return asynq.SkipRetry
		}
		tracker := metrics.Track(TaskAuditPrune)
		cutoff := time.Now().UTC().Add(-payload.Retention)
		removed, err := svc.Prune(ctx, cutoff)
		if err != nil {
			logger.Error("audit prune failed", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("audit prune completed", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
		return tracker.End(nil)
	}
}
