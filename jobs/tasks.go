package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskOverdueScan marks pending installments past their due date overdue.
	TaskOverdueScan = "installments:overdue_scan"
	// TaskPaymentNotice notifies a customer about a recorded payment.
	TaskPaymentNotice = "payments:notice"
)

// OverdueScanPayload carries the reference date for the scan. A zero AsOf
// means today.
type OverdueScanPayload struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// PaymentNoticePayload describes one payment notification.
type PaymentNoticePayload struct {
	TenantID       int64  `json:"tenant_id"`
	ContractID     int64  `json:"contract_id"`
	ContractNumber string `json:"contract_number"`
	Amount         string `json:"amount"`
	Remaining      string `json:"remaining"`
}

// NewOverdueScanTask constructs the scan task.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, data), nil
}

// NewPaymentNoticeTask constructs a payment notice task.
func NewPaymentNoticeTask(payload PaymentNoticePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentNotice, data), nil
}
