// Package schedule implements the installment plan arithmetic shared by the
// contracts and collections modules: schedule generation, payment application
// and aggregate status reconciliation.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus enumerates installment lifecycle states.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPartial InstallmentStatus = "partial"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
)

// ParentStatus enumerates contract/collection lifecycle states.
type ParentStatus string

const (
	ParentPending   ParentStatus = "pending"
	ParentActive    ParentStatus = "active"
	ParentCompleted ParentStatus = "completed"
	ParentDefaulted ParentStatus = "defaulted"
	ParentCancelled ParentStatus = "cancelled"
)

// Draft is one generated installment before persistence.
type Draft struct {
	Number  int
	Amount  decimal.Decimal
	DueDate time.Time
}

// Installment is the engine's view of a persisted installment row.
type Installment struct {
	ID         int64
	ParentID   int64
	Number     int
	Amount     decimal.Decimal
	PaidAmount decimal.Decimal
	DueDate    time.Time
	PaidDate   *time.Time
	Status     InstallmentStatus
}

// Remaining returns the unpaid portion, clamped at zero for overpaid rows.
func (i Installment) Remaining() decimal.Decimal {
	rem := i.Amount.Sub(i.PaidAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Parent is the engine's view of the owning contract or collection.
type Parent struct {
	ID          int64
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	Status      ParentStatus
}

// Remaining returns totalAmount - paidAmount. It is intentionally not clamped;
// the reconciler needs the signed value.
func (p Parent) Remaining() decimal.Decimal {
	return p.TotalAmount.Sub(p.PaidAmount)
}

// StatusFor derives an installment status from its due and paid amounts.
// Overdue is never produced here; only the overdue scan job sets it.
func StatusFor(due, paid decimal.Decimal) InstallmentStatus {
	switch {
	case paid.GreaterThanOrEqual(due):
		return InstallmentPaid
	case paid.IsPositive():
		return InstallmentPartial
	default:
		return InstallmentPending
	}
}

// Reconcile decides the parent status implied by its balances. Completion is
// bidirectional: a correction that raises the remaining balance above zero
// moves a completed parent back to active. Defaulted and cancelled are
// operator-driven and never touched.
func Reconcile(p Parent) ParentStatus {
	if p.Status == ParentDefaulted || p.Status == ParentCancelled {
		return p.Status
	}
	if p.TotalAmount.IsPositive() && !p.Remaining().IsPositive() {
		return ParentCompleted
	}
	if p.Status == ParentCompleted {
		return ParentActive
	}
	return p.Status
}
