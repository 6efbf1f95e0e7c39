package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

// OverdueScanJob marks pending and partial installments overdue once their due
// date has passed. The payment path never sets overdue; this scan is the only
// writer of that status.
type OverdueScanJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOverdueScanJob initialises the scan handler.
func NewOverdueScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueScanJob {
	return &OverdueScanJob{
		pool:    pool,
		logger:  logger,
		metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

var overdueTables = map[string]string{
	"contract_installments":   "contract installments",
	"collection_installments": "collection installments",
}

// Handle executes the scan across both installment tables.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.pool == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = j.clock()
	}

	tracker := j.metrics.Track(TaskOverdueScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	for table, label := range overdueTables {
		tag, err := j.pool.Exec(ctx, `
			UPDATE `+table+` SET status = 'overdue', updated_at = NOW()
			WHERE status IN ('pending', 'partial') AND due_date < $1 AND is_deleted = FALSE`, asOf)
		if err != nil {
			resultErr = err
			return resultErr
		}
		j.metrics.AddOverdue(table, tag.RowsAffected())
		if j.logger != nil {
			j.logger.Info("overdue scan",
				slog.String("scope", label),
				slog.Int64("marked", tag.RowsAffected()),
				slog.Time("as_of", asOf))
		}
	}
	return nil
}
