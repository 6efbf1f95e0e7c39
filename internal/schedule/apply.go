package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence capability a parent module lends to the applicator.
// InTx must run the callback inside one database transaction; the two Add
// methods must be atomic SQL increments, never read-modify-write.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
	GetParent(ctx context.Context, tenantID, parentID int64) (Parent, error)
	AddInstallmentPayment(ctx context.Context, tenantID, parentID int64, number int, amount decimal.Decimal, paidDate time.Time) (Installment, error)
	SetInstallmentStatus(ctx context.Context, installmentID int64, status InstallmentStatus) error
	AddParentPayment(ctx context.Context, tenantID, parentID int64, amount decimal.Decimal) (Parent, error)
	SetParentStatus(ctx context.Context, parentID int64, status ParentStatus) error
}

// Result reports the state after a payment has been applied.
type Result struct {
	Parent      Parent
	Installment *Installment
}

// Applicator applies payments against a parent and, optionally, one of its
// installments, and reconciles the parent status in the same transaction.
type Applicator struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewApplicator builds an Applicator over the given store.
func NewApplicator(store Store, logger *slog.Logger) *Applicator {
	return &Applicator{store: store, logger: logger, now: time.Now}
}

// Apply adds amount to the targeted installment (when number is non-nil) and
// to the parent aggregate, then reconciles the parent status. Installment and
// parent writes share one transaction. Overpayment is accepted and recorded in
// full; an already paid installment accepts further payments without error.
func (a *Applicator) Apply(ctx context.Context, tenantID, parentID int64, amount decimal.Decimal, number *int) (Result, error) {
	var res Result
	err := a.store.InTx(ctx, func(ctx context.Context, s Store) error {
		if _, err := s.GetParent(ctx, tenantID, parentID); err != nil {
			return err
		}

		if number != nil {
			inst, err := s.AddInstallmentPayment(ctx, tenantID, parentID, *number, amount, a.now())
			if err != nil {
				return err
			}
			status := StatusFor(inst.Amount, inst.PaidAmount)
			if status != inst.Status {
				if err := s.SetInstallmentStatus(ctx, inst.ID, status); err != nil {
					return err
				}
				inst.Status = status
			}
			res.Installment = &inst
		}

		parent, err := s.AddParentPayment(ctx, tenantID, parentID, amount)
		if err != nil {
			return err
		}
		if next := Reconcile(parent); next != parent.Status {
			if err := s.SetParentStatus(ctx, parent.ID, next); err != nil {
				return err
			}
			parent.Status = next
		}
		res.Parent = parent
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if a.logger != nil {
		a.logger.Info("payment applied",
			slog.Int64("tenant_id", tenantID),
			slog.Int64("parent_id", parentID),
			slog.String("amount", amount.String()),
			slog.String("parent_status", string(res.Parent.Status)))
	}
	return res, nil
}
