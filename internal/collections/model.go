package collections

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/schedule"
)

// Collection is a debt-collection file tracking recovery of an outstanding
// balance through an installment plan.
type Collection struct {
	ID                int64                 `json:"id"`
	TenantID          int64                 `json:"tenant_id"`
	Number            string                `json:"number"`
	DebtorName        string                `json:"debtor_name"`
	DebtorPhone       *string               `json:"debtor_phone,omitempty"`
	CustomerID        *int64                `json:"customer_id,omitempty"`
	AssignedTo        *int64                `json:"assigned_to,omitempty"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	CollectedAmount   decimal.Decimal       `json:"collected_amount"`
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

// Installment is one scheduled recovery obligation within a collection file.
type Installment struct {
	ID              int64                      `json:"id"`
	CollectionID    int64                      `json:"collection_id"`
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

// CollectionOutcome reports the file and installment state after a collection
// payment has been recorded.
type CollectionOutcome struct {
	Collection  Collection   `json:"collection"`
	Installment *Installment `json:"installment,omitempty"`
}

func (c *Collection) deriveRemaining() {
	rem := c.TotalAmount.Sub(c.CollectedAmount)
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
