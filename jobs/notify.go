package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/contracts"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

// PaymentNotifier implements contracts.Notifier by enqueuing a notice task.
// Enqueue failures are logged and swallowed; the payment itself already
// committed.
type PaymentNotifier struct {
	client *Client
	logger *slog.Logger
}

// NewPaymentNotifier builds a notifier over the queue client.
func NewPaymentNotifier(client *Client, logger *slog.Logger) *PaymentNotifier {
	return &PaymentNotifier{client: client, logger: logger}
}

// PaymentReceived enqueues the notification task.
func (n *PaymentNotifier) PaymentReceived(ctx context.Context, notice contracts.PaymentNotice) {
	if n == nil || n.client == nil {
		return
	}
	task, err := NewPaymentNoticeTask(PaymentNoticePayload{
		TenantID:       notice.TenantID,
		ContractID:     notice.ContractID,
		ContractNumber: notice.ContractNumber,
		Amount:         notice.Amount.String(),
		Remaining:      notice.Remaining.String(),
	})
	if err != nil {
		if n.logger != nil {
			n.logger.Warn("payment notice build failed", slog.Any("error", err))
		}
		return
	}
	if _, err := n.client.Enqueue(ctx, task); err != nil && n.logger != nil {
		n.logger.Warn("payment notice enqueue failed",
			slog.Int64("contract_id", notice.ContractID), slog.Any("error", err))
	}
}

// PaymentNoticeJob processes queued payment notices. Delivery is delegated to
// an external SMS gateway upstream; here the notice is logged for the
// dispatch audit trail.
type PaymentNoticeJob struct {
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewPaymentNoticeJob initialises the notice handler.
func NewPaymentNoticeJob(logger *slog.Logger, metrics *jobmetrics.Metrics) *PaymentNoticeJob {
	return &PaymentNoticeJob{logger: logger, metrics: metrics}
}

// Handle logs the notice.
func (j *PaymentNoticeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PaymentNoticePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics.Track(TaskPaymentNotice)
	if j.logger != nil {
		j.logger.Info("payment notice",
			slog.Int64("tenant_id", payload.TenantID),
			slog.Int64("contract_id", payload.ContractID),
			slog.String("contract", payload.ContractNumber),
			slog.String("amount", payload.Amount),
			slog.String("remaining", payload.Remaining))
	}
	return tracker.End(nil)
}
