package collections

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/schedule"
)

type CreateCollectionRequest struct {
	Number            string          `json:"number" validate:"required,max=40"`
	DebtorName        string          `json:"debtor_name" validate:"required,max=200"`
	DebtorPhone       *string         `json:"debtor_phone,omitempty" validate:"omitempty,max=30"`
	CustomerID        *int64          `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	AssignedTo        *int64          `json:"assigned_to,omitempty" validate:"omitempty,gt=0"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	InstallmentCount  int             `json:"installment_count" validate:"gte=0"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	FirstDueDate      *time.Time      `json:"first_due_date,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
}

type UpdateCollectionRequest struct {
	DebtorName  *string          `json:"debtor_name,omitempty" validate:"omitempty,max=200"`
	DebtorPhone *string          `json:"debtor_phone,omitempty" validate:"omitempty,max=30"`
	AssignedTo  *int64           `json:"assigned_to,omitempty" validate:"omitempty,gt=0"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status schedule.ParentStatus `json:"status" validate:"required,oneof=pending active completed defaulted cancelled"`
	Reason *string               `json:"reason,omitempty"`
}

type CollectRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	InstallmentNumber *int            `json:"installment_number,omitempty" validate:"omitempty,gt=0"`
}

type ListCollectionsRequest struct {
	AssignedTo *int64
	Status     *schedule.ParentStatus
	Search     string
	Page       int
	Limit      int
}
