package income

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateReceiptRequest struct {
	Number            string          `json:"number" validate:"required,max=40"`
	ContractID        int64           `json:"contract_id" validate:"required,gt=0"`
	InstallmentNumber *int            `json:"installment_number,omitempty" validate:"omitempty,gt=0"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method" validate:"required,oneof=cash transfer cheque card"`
	ReceivedAt        *time.Time      `json:"received_at,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
}

type VoidReceiptRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type ListReceiptsRequest struct {
	ContractID *int64
	Status     *ReceiptStatus
	Method     string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}
