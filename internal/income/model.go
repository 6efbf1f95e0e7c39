// Package income implements the receipts ledger. Posting a receipt applies
// the amount to the linked contract; voiding a receipt reverses it.
package income

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptStatus enumerates receipt lifecycle states.
type ReceiptStatus string

const (
	ReceiptPosted ReceiptStatus = "posted"
	ReceiptVoided ReceiptStatus = "voided"
)

// Receipt is one income entry against a contract.
type Receipt struct {
	ID                int64           `json:"id"`
	TenantID          int64           `json:"tenant_id"`
	Number            string          `json:"number"`
	IdempotencyKey    string          `json:"idempotency_key"`
	ContractID        int64           `json:"contract_id"`
	InstallmentNumber *int            `json:"installment_number,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method"`
	ReceivedAt        time.Time       `json:"received_at"`
	Status            ReceiptStatus   `json:"status"`
	Notes             *string         `json:"notes,omitempty"`
	VoidReason        *string         `json:"void_reason,omitempty"`
	VoidedAt          *time.Time      `json:"voided_at,omitempty"`
	CreatedBy         int64           `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
