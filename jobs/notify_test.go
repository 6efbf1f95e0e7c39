package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestPaymentNoticeJobHandle(t *testing.T) {
	job := NewPaymentNoticeJob(nil, nil)

	task, err := NewPaymentNoticeTask(PaymentNoticePayload{
		TenantID:       7,
		ContractID:     42,
		ContractNumber: "CTR-2025-001",
		Amount:         "100",
	})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestPaymentNoticeJobRejectsBadPayload(t *testing.T) {
	job := NewPaymentNoticeJob(nil, nil)

	bad := asynq.NewTask(TaskPaymentNotice, []byte("{not json"))
	err := job.Handle(context.Background(), bad)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
