package contracts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/schedule"
)

// Contract is an installment-sale agreement owning a repayment plan.
type Contract struct {
	ID                int64                 `json:"id"`
	TenantID          int64                 `json:"tenant_id"`
	Number            string                `json:"number"`
	CustomerID        int64                 `json:"customer_id"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	PaidAmount        decimal.Decimal       `json:"paid_amount"`
	RemainingAmount   decimal.Decimal       `json:"remaining_amount"`
	Status            schedule.ParentStatus `json:"status"`
	InstallmentCount  int                   `json:"installment_count"`
	InstallmentAmount decimal.Decimal       `json:"installment_amount"`
	FirstDueDate      *time.Time            `json:"first_due_date,omitempty"`
	Notes             *string               `json:"notes,omitempty"`
	CreatedBy         int64                 `json:"created_by"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Installments      []Installment         `json:"installments,omitempty"`
}

// Installment is one scheduled payment obligation within a contract.
type Installment struct {
	ID              int64                      `json:"id"`
	ContractID      int64                      `json:"contract_id"`
	Number          int                        `json:"installment_number"`
	Amount          decimal.Decimal            `json:"amount"`
	PaidAmount      decimal.Decimal            `json:"paid_amount"`
	RemainingAmount decimal.Decimal            `json:"remaining_amount"`
	DueDate         time.Time                  `json:"due_date"`
	PaidDate        *time.Time                 `json:"paid_date,omitempty"`
	Status          schedule.InstallmentStatus `json:"status"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// PaymentOutcome reports the contract and installment state after a payment.
type PaymentOutcome struct {
	Contract    Contract     `json:"contract"`
	Installment *Installment `json:"installment,omitempty"`
}

func (c *Contract) deriveRemaining() {
	rem := c.TotalAmount.Sub(c.PaidAmount)
	if rem.IsNegative() {
		rem = decimal.Zero
	}
	c.RemainingAmount = rem
}

func (i *Installment) deriveRemaining() {
	rem := i.Amount.Sub(i.PaidAmount)
	if rem.IsNegative() {
		rem = decimal.Zero
	}
	i.RemainingAmount = rem
}
