package schedule

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Generate produces the installment drafts for a payment plan. A zero count or
// a missing first due date yields an empty schedule; that is the deliberate
// no-plan path. Due dates advance by whole calendar months with the standard
// time.AddDate normalization (Jan 31 + 1 month rolls into early March).
func Generate(count int, amount decimal.Decimal, firstDue *time.Time) []Draft {
	if count <= 0 || firstDue == nil {
		return nil
	}
	drafts := make([]Draft, 0, count)
	for i := 0; i < count; i++ {
		drafts = append(drafts, Draft{
			Number:  i + 1,
			Amount:  amount,
			DueDate: firstDue.AddDate(0, i, 0),
		})
	}
	return drafts
}

// ValidatePlan enforces that a requested plan is internally consistent:
// count x installmentAmount must equal the parent total. A zero count is a
// valid no-plan request and passes.
func ValidatePlan(total decimal.Decimal, count int, amount decimal.Decimal) error {
	if count < 0 {
		return fmt.Errorf("%w: installment count must not be negative", shared.ErrValidation)
	}
	if count == 0 {
		return nil
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: installment amount must be positive", shared.ErrValidation)
	}
	planned := amount.Mul(decimal.NewFromInt(int64(count)))
	if !planned.Equal(total) {
		return fmt.Errorf("%w: %d installments of %s total %s, parent total is %s",
			shared.ErrValidation, count, amount.String(), planned.String(), total.String())
	}
	return nil
}
