package contracts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/schedule"
)

type CreateContractRequest struct {
	Number            string          `json:"number" validate:"required,max=40"`
	CustomerID        int64           `json:"customer_id" validate:"required,gt=0"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	InstallmentCount  int             `json:"installment_count" validate:"gte=0"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	FirstDueDate      *time.Time      `json:"first_due_date,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
}

type UpdateContractRequest struct {
	CustomerID  *int64           `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status schedule.ParentStatus `json:"status" validate:"required,oneof=pending active completed defaulted cancelled"`
	Reason *string               `json:"reason,omitempty"`
}

type ApplyPaymentRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	InstallmentNumber *int            `json:"installment_number,omitempty" validate:"omitempty,gt=0"`
}

type ListContractsRequest struct {
	CustomerID *int64
	Status     *schedule.ParentStatus
	Search     string
	Page       int
	Limit      int
}
