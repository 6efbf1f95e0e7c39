package schedule

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryStore struct {
	parents      map[int64]*Parent
	tenants      map[int64]int64
	installments map[int64][]*Installment
	nextID       int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		parents:      make(map[int64]*Parent),
		tenants:      make(map[int64]int64),
		installments: make(map[int64][]*Installment),
	}
}

func (m *memoryStore) addParent(tenantID int64, total decimal.Decimal, drafts []Draft) int64 {
	m.nextID++
	id := m.nextID
	m.parents[id] = &Parent{ID: id, TotalAmount: total, PaidAmount: decimal.Zero, Status: ParentActive}
	m.tenants[id] = tenantID
	for _, d := range drafts {
		m.nextID++
		m.installments[id] = append(m.installments[id], &Installment{
			ID:         m.nextID,
			ParentID:   id,
			Number:     d.Number,
			Amount:     d.Amount,
			PaidAmount: decimal.Zero,
			DueDate:    d.DueDate,
			Status:     InstallmentPending,
		})
	}
	return id
}

func (m *memoryStore) InTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return fn(ctx, m)
}

func (m *memoryStore) GetParent(ctx context.Context, tenantID, parentID int64) (Parent, error) {
	p, ok := m.parents[parentID]
	if !ok || m.tenants[parentID] != tenantID {
		return Parent{}, shared.ErrNotFound
	}
	return *p, nil
}

func (m *memoryStore) AddInstallmentPayment(ctx context.Context, tenantID, parentID int64, number int, amount decimal.Decimal, paidDate time.Time) (Installment, error) {
	if m.tenants[parentID] != tenantID {
		return Installment{}, shared.ErrNotFound
	}
	for _, inst := range m.installments[parentID] {
		if inst.Number == number {
			inst.PaidAmount = inst.PaidAmount.Add(amount)
			inst.PaidDate = &paidDate
			return *inst, nil
		}
	}
	return Installment{}, shared.ErrNotFound
}

func (m *memoryStore) SetInstallmentStatus(ctx context.Context, installmentID int64, status InstallmentStatus) error {
	for _, list := range m.installments {
		for _, inst := range list {
			if inst.ID == installmentID {
				inst.Status = status
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

func (m *memoryStore) AddParentPayment(ctx context.Context, tenantID, parentID int64, amount decimal.Decimal) (Parent, error) {
	p, ok := m.parents[parentID]
	if !ok || m.tenants[parentID] != tenantID {
		return Parent{}, shared.ErrNotFound
	}
	p.PaidAmount = p.PaidAmount.Add(amount)
	return *p, nil
}

func (m *memoryStore) SetParentStatus(ctx context.Context, parentID int64, status ParentStatus) error {
	p, ok := m.parents[parentID]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *memoryStore) installment(parentID int64, number int) *Installment {
	for _, inst := range m.installments[parentID] {
		if inst.Number == number {
			return inst
		}
	}
	return nil
}

func newTestPlan(t *testing.T, store *memoryStore) int64 {
	t.Helper()
	first := date(2026, time.January, 15)
	drafts := Generate(12, decimal.NewFromInt(100), &first)
	require.Len(t, drafts, 12)
	return store.addParent(7, decimal.NewFromInt(1200), drafts)
}

func num(n int) *int { return &n }

func TestApplyFullInstallmentPayment(t *testing.T) {
	store := newMemoryStore()
	parentID := newTestPlan(t, store)
	app := NewApplicator(store, nil)

	res, err := app.Apply(context.Background(), 7, parentID, decimal.NewFromInt(100), num(1))
	require.NoError(t, err)

	require.NotNil(t, res.Installment)
	require.True(t, res.Installment.PaidAmount.Equal(decimal.NewFromInt(100)))
	require.Equal(t, InstallmentPaid, res.Installment.Status)
	require.NotNil(t, res.Installment.PaidDate)

	require.True(t, res.Parent.PaidAmount.Equal(decimal.NewFromInt(100)))
	require.True(t, res.Parent.Remaining().Equal(decimal.NewFromInt(1100)))
	require.Equal(t, ParentActive, res.Parent.Status)
}

func TestApplyPartialInstallmentPayment(t *testing.T) {
	store := newMemoryStore()
	parentID := newTestPlan(t, store)
	app := NewApplicator(store, nil)

	res, err := app.Apply(context.Background(), 7, parentID, decimal.NewFromInt(50), num(1))
	require.NoError(t, err)

	require.Equal(t, InstallmentPartial, res.Installment.Status)
	require.True(t, res.Parent.Remaining().Equal(decimal.NewFromInt(1150)))
}

func TestApplyIsAdditive(t *testing.T) {
	storeA := newMemoryStore()
	idA := newTestPlan(t, storeA)
	appA := NewApplicator(storeA, nil)
	_, err := appA.Apply(context.Background(), 7, idA, decimal.NewFromInt(30), num(1))
	require.NoError(t, err)
	_, err = appA.Apply(context.Background(), 7, idA, decimal.NewFromInt(70), num(1))
	require.NoError(t, err)

	storeB := newMemoryStore()
	idB := newTestPlan(t, storeB)
	appB := NewApplicator(storeB, nil)
	_, err = appB.Apply(context.Background(), 7, idB, decimal.NewFromInt(100), num(1))
	require.NoError(t, err)

	instA := storeA.installment(idA, 1)
	instB := storeB.installment(idB, 1)
	require.True(t, instA.PaidAmount.Equal(instB.PaidAmount))
	require.Equal(t, instB.Status, instA.Status)
	require.True(t, storeA.parents[idA].PaidAmount.Equal(storeB.parents[idB].PaidAmount))
}

func TestApplyPaidStatusIsSticky(t *testing.T) {
	store := newMemoryStore()
	parentID := newTestPlan(t, store)
	app := NewApplicator(store, nil)

	_, err := app.Apply(context.Background(), 7, parentID, decimal.NewFromInt(100), num(1))
	require.NoError(t, err)

	// Overpayment on an already paid installment is accepted and stays paid.
	res, err := app.Apply(context.Background(), 7, parentID, decimal.NewFromInt(25), num(1))
	require.NoError(t, err)
	require.Equal(t, InstallmentPaid, res.Installment.Status)
	require.True(t, res.Installment.PaidAmount.Equal(decimal.NewFromInt(125)))
	require.True(t, res.Installment.Remaining().Equal(decimal.Zero))
}

func TestApplyCompletesParent(t *testing.T) {
	store := newMemoryStore()
	parentID := newTestPlan(t, store)
	app := NewApplicator(store, nil)

	for i := 1; i <= 12; i++ {
		res, err := app.Apply(context.Background(), 7, parentID, decimal.NewFromInt(100), num(i))
		require.NoError(t, err)
		if i < 12 {
			require.Equal(t, ParentActive, res.Parent.Status, fmt.Sprintf("installment %d", i))
		} else {
			require.Equal(t, ParentCompleted, res.Parent.Status)
			require.True(t, res.Parent.Remaining().Equal(decimal.Zero))
		}
	}
}

func TestApplyUntargetedPaymentHitsParentOnly(t *testing.T) {
	store := newMemoryStore()
	parentID := newTestPlan(t, store)
	app := NewApplicator(store, nil)

	res, err := app.Apply(context.Background(), 7, parentID, decimal.NewFromInt(300), nil)
	require.NoError(t, err)
	require.Nil(t, res.Installment)
	require.True(t, res.Parent.PaidAmount.Equal(decimal.NewFromInt(300)))
	require.Equal(t, InstallmentPending, store.installment(parentID, 1).Status)
}

func TestApplyNotFound(t *testing.T) {
	store := newMemoryStore()
	parentID := newTestPlan(t, store)
	app := NewApplicator(store, nil)

	_, err := app.Apply(context.Background(), 7, 999, decimal.NewFromInt(10), nil)
	require.ErrorIs(t, err, shared.ErrNotFound)

	// Wrong tenant is indistinguishable from absent.
	_, err = app.Apply(context.Background(), 8, parentID, decimal.NewFromInt(10), nil)
	require.ErrorIs(t, err, shared.ErrNotFound)

	// Missing installment number.
	_, err = app.Apply(context.Background(), 7, parentID, decimal.NewFromInt(10), num(13))
	require.ErrorIs(t, err, shared.ErrNotFound)

	// A failed application leaves the parent untouched.
	require.True(t, store.parents[parentID].PaidAmount.Equal(decimal.Zero))
}
