package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/schedule"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	contracts map[int64]*Contract
	deleted   map[int64]bool
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{contracts: make(map[int64]*Contract), deleted: make(map[int64]bool)}
}

func (m *memoryRepo) find(tenantID, id int64) (*Contract, bool) {
	c, ok := m.contracts[id]
	if !ok || m.deleted[id] || c.TenantID != tenantID {
		return nil, false
	}
	return c, true
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) InTx(ctx context.Context, fn func(context.Context, schedule.Store) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Create(ctx context.Context, c Contract, drafts []schedule.Draft) (Contract, error) {
	for _, existing := range m.contracts {
		if existing.TenantID == c.TenantID && existing.Number == c.Number && !m.deleted[existing.ID] {
			return Contract{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	c.ID = m.nextID
	c.PaidAmount = decimal.Zero
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	for _, d := range drafts {
		m.nextID++
		c.Installments = append(c.Installments, Installment{
			ID:         m.nextID,
			ContractID: c.ID,
			Number:     d.Number,
			Amount:     d.Amount,
			PaidAmount: decimal.Zero,
			DueDate:    d.DueDate,
			Status:     schedule.InstallmentPending,
		})
	}
	stored := c
	m.contracts[c.ID] = &stored
	return m.get(c.TenantID, c.ID)
}

func (m *memoryRepo) get(tenantID, id int64) (Contract, error) {
	c, ok := m.find(tenantID, id)
	if !ok {
		return Contract{}, shared.ErrNotFound
	}
	out := *c
	out.deriveRemaining()
	out.Installments = make([]Installment, len(c.Installments))
	for i, inst := range c.Installments {
		inst.deriveRemaining()
		out.Installments[i] = inst
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, tenantID, id int64) (Contract, error) {
	return m.get(tenantID, id)
}

func (m *memoryRepo) List(ctx context.Context, tenantID int64, req ListContractsRequest) ([]Contract, int, error) {
	var out []Contract
	for id, c := range m.contracts {
		if c.TenantID != tenantID || m.deleted[id] {
			continue
		}
		if req.Status != nil && c.Status != *req.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(ctx context.Context, tenantID, id int64, req UpdateContractRequest) error {
	c, ok := m.find(tenantID, id)
	if !ok {
		return shared.ErrNotFound
	}
	if req.CustomerID != nil {
		c.CustomerID = *req.CustomerID
	}
	if req.TotalAmount != nil {
		c.TotalAmount = *req.TotalAmount
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	return nil
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, tenantID, id int64, status schedule.ParentStatus) error {
	c, ok := m.find(tenantID, id)
	if !ok {
		return shared.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *memoryRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	if _, ok := m.find(tenantID, id); !ok {
		return shared.ErrNotFound
	}
	m.deleted[id] = true
	return nil
}

func (m *memoryRepo) GetParent(ctx context.Context, tenantID, parentID int64) (schedule.Parent, error) {
	c, ok := m.find(tenantID, parentID)
	if !ok {
		return schedule.Parent{}, shared.ErrNotFound
	}
	return schedule.Parent{ID: c.ID, TotalAmount: c.TotalAmount, PaidAmount: c.PaidAmount, Status: c.Status}, nil
}

func (m *memoryRepo) AddInstallmentPayment(ctx context.Context, tenantID, parentID int64, number int, amount decimal.Decimal, paidDate time.Time) (schedule.Installment, error) {
	c, ok := m.find(tenantID, parentID)
	if !ok {
		return schedule.Installment{}, shared.ErrNotFound
	}
	for i := range c.Installments {
		inst := &c.Installments[i]
		if inst.Number == number {
			inst.PaidAmount = inst.PaidAmount.Add(amount)
			inst.PaidDate = &paidDate
			return schedule.Installment{
				ID:         inst.ID,
				ParentID:   parentID,
				Number:     inst.Number,
				Amount:     inst.Amount,
				PaidAmount: inst.PaidAmount,
				DueDate:    inst.DueDate,
				PaidDate:   inst.PaidDate,
				Status:     inst.Status,
			}, nil
		}
	}
	return schedule.Installment{}, shared.ErrNotFound
}

func (m *memoryRepo) SetInstallmentStatus(ctx context.Context, installmentID int64, status schedule.InstallmentStatus) error {
	for _, c := range m.contracts {
		for i := range c.Installments {
			if c.Installments[i].ID == installmentID {
				c.Installments[i].Status = status
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

func (m *memoryRepo) AddParentPayment(ctx context.Context, tenantID, parentID int64, amount decimal.Decimal) (schedule.Parent, error) {
	c, ok := m.find(tenantID, parentID)
	if !ok {
		return schedule.Parent{}, shared.ErrNotFound
	}
	c.PaidAmount = c.PaidAmount.Add(amount)
	return schedule.Parent{ID: c.ID, TotalAmount: c.TotalAmount, PaidAmount: c.PaidAmount, Status: c.Status}, nil
}

func (m *memoryRepo) SetParentStatus(ctx context.Context, parentID int64, status schedule.ParentStatus) error {
	c, ok := m.contracts[parentID]
	if !ok {
		return shared.ErrNotFound
	}
	c.Status = status
	return nil
}

var testIdentity = shared.Identity{TenantID: 7, UserID: 3}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, nil, nil, nil, nil), repo
}

func createTestContract(t *testing.T, svc *Service) Contract {
	t.Helper()
	first := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	c, err := svc.Create(context.Background(), testIdentity, CreateContractRequest{
		Number:            "CT-2601-0001",
		CustomerID:        42,
		TotalAmount:       decimal.NewFromInt(1200),
		InstallmentCount:  12,
		InstallmentAmount: decimal.NewFromInt(100),
		FirstDueDate:      &first,
	})
	require.NoError(t, err)
	return c
}

func TestCreateGeneratesSchedule(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	require.Equal(t, schedule.ParentActive, c.Status)
	require.True(t, c.RemainingAmount.Equal(decimal.NewFromInt(1200)))
	require.Len(t, c.Installments, 12)
	for i, inst := range c.Installments {
		require.Equal(t, i+1, inst.Number)
		require.True(t, inst.Amount.Equal(decimal.NewFromInt(100)))
		require.Equal(t, schedule.InstallmentPending, inst.Status)
		require.Equal(t, time.Date(2026, time.January+time.Month(i), 15, 0, 0, 0, 0, time.UTC), inst.DueDate)
	}
}

func TestCreateWithoutPlan(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.Create(context.Background(), testIdentity, CreateContractRequest{
		Number:      "CT-2601-0002",
		CustomerID:  42,
		TotalAmount: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.Empty(t, c.Installments)
}

func TestCreateWithoutFirstDueDate(t *testing.T) {
	svc, _ := newTestService()

	// A count without a first due date is the deliberate no-plan path.
	c, err := svc.Create(context.Background(), testIdentity, CreateContractRequest{
		Number:            "CT-2601-0003",
		CustomerID:        42,
		TotalAmount:       decimal.NewFromInt(1200),
		InstallmentCount:  12,
		InstallmentAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.Empty(t, c.Installments)
}

func TestCreatePlanMismatch(t *testing.T) {
	svc, _ := newTestService()
	first := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), testIdentity, CreateContractRequest{
		Number:            "CT-2601-0004",
		CustomerID:        42,
		TotalAmount:       decimal.NewFromInt(1200),
		InstallmentCount:  12,
		InstallmentAmount: decimal.NewFromInt(90),
		FirstDueDate:      &first,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateDuplicateNumber(t *testing.T) {
	svc, _ := newTestService()
	createTestContract(t, svc)

	_, err := svc.Create(context.Background(), testIdentity, CreateContractRequest{
		Number:      "CT-2601-0001",
		CustomerID:  42,
		TotalAmount: decimal.NewFromInt(100),
	})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestApplyPaymentFull(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	one := 1
	outcome, err := svc.ApplyPayment(context.Background(), testIdentity, c.ID, ApplyPaymentRequest{
		Amount:            decimal.NewFromInt(100),
		InstallmentNumber: &one,
	})
	require.NoError(t, err)

	require.NotNil(t, outcome.Installment)
	require.Equal(t, schedule.InstallmentPaid, outcome.Installment.Status)
	require.True(t, outcome.Installment.PaidAmount.Equal(decimal.NewFromInt(100)))
	require.True(t, outcome.Contract.PaidAmount.Equal(decimal.NewFromInt(100)))
	require.True(t, outcome.Contract.RemainingAmount.Equal(decimal.NewFromInt(1100)))
	require.Equal(t, schedule.ParentActive, outcome.Contract.Status)
}

func TestApplyPaymentPartial(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	one := 1
	outcome, err := svc.ApplyPayment(context.Background(), testIdentity, c.ID, ApplyPaymentRequest{
		Amount:            decimal.NewFromInt(50),
		InstallmentNumber: &one,
	})
	require.NoError(t, err)
	require.Equal(t, schedule.InstallmentPartial, outcome.Installment.Status)
	require.True(t, outcome.Contract.RemainingAmount.Equal(decimal.NewFromInt(1150)))
}

func TestApplyPaymentCompletesContract(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	var last PaymentOutcome
	for i := 1; i <= 12; i++ {
		n := i
		outcome, err := svc.ApplyPayment(context.Background(), testIdentity, c.ID, ApplyPaymentRequest{
			Amount:            decimal.NewFromInt(100),
			InstallmentNumber: &n,
		})
		require.NoError(t, err)
		last = outcome
	}

	require.True(t, last.Contract.RemainingAmount.Equal(decimal.Zero))
	require.Equal(t, schedule.ParentCompleted, last.Contract.Status)
}

type recordingNotifier struct {
	notices []PaymentNotice
}

func (r *recordingNotifier) PaymentReceived(ctx context.Context, notice PaymentNotice) {
	r.notices = append(r.notices, notice)
}

func TestApplyPaymentNotifiesWithRemaining(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, nil, nil, notifier, nil)
	c := createTestContract(t, svc)

	one := 1
	_, err := svc.ApplyPayment(context.Background(), testIdentity, c.ID, ApplyPaymentRequest{
		Amount:            decimal.NewFromInt(100),
		InstallmentNumber: &one,
	})
	require.NoError(t, err)

	require.Len(t, notifier.notices, 1)
	notice := notifier.notices[0]
	require.Equal(t, testIdentity.TenantID, notice.TenantID)
	require.Equal(t, c.ID, notice.ContractID)
	require.Equal(t, "CT-2601-0001", notice.ContractNumber)
	require.True(t, notice.Amount.Equal(decimal.NewFromInt(100)))
	require.True(t, notice.Remaining.Equal(decimal.NewFromInt(1100)))
}

func TestApplyPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	_, err := svc.ApplyPayment(context.Background(), testIdentity, c.ID, ApplyPaymentRequest{Amount: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.ApplyPayment(context.Background(), testIdentity, c.ID, ApplyPaymentRequest{Amount: decimal.NewFromInt(-10)})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestApplyPaymentWrongTenant(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	other := shared.Identity{TenantID: 8, UserID: 1}
	_, err := svc.ApplyPayment(context.Background(), other, c.ID, ApplyPaymentRequest{Amount: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateRaisingTotalReopensCompleted(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	for i := 1; i <= 12; i++ {
		n := i
		_, err := svc.ApplyPayment(context.Background(), testIdentity, c.ID, ApplyPaymentRequest{
			Amount:            decimal.NewFromInt(100),
			InstallmentNumber: &n,
		})
		require.NoError(t, err)
	}

	raised := decimal.NewFromInt(1500)
	updated, err := svc.Update(context.Background(), testIdentity, c.ID, UpdateContractRequest{TotalAmount: &raised})
	require.NoError(t, err)
	require.Equal(t, schedule.ParentActive, updated.Status)
	require.True(t, updated.RemainingAmount.Equal(decimal.NewFromInt(300)))
}

func TestUpdateCancelledContractConflicts(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	_, err := svc.UpdateStatus(context.Background(), testIdentity, c.ID, UpdateStatusRequest{Status: schedule.ParentCancelled})
	require.NoError(t, err)

	note := "too late"
	_, err = svc.Update(context.Background(), testIdentity, c.ID, UpdateContractRequest{Notes: &note})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestDeleteHidesContract(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	require.NoError(t, svc.Delete(context.Background(), testIdentity, c.ID))
	_, err := svc.Get(context.Background(), testIdentity, c.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReverseAmountReopensContract(t *testing.T) {
	svc, _ := newTestService()
	c := createTestContract(t, svc)

	for i := 1; i <= 12; i++ {
		n := i
		_, err := svc.ApplyPayment(context.Background(), testIdentity, c.ID, ApplyPaymentRequest{
			Amount:            decimal.NewFromInt(100),
			InstallmentNumber: &n,
		})
		require.NoError(t, err)
	}

	one := 1
	outcome, err := svc.ReverseAmount(context.Background(), testIdentity, c.ID, decimal.NewFromInt(100), &one)
	require.NoError(t, err)
	require.Equal(t, schedule.ParentActive, outcome.Contract.Status)
	require.True(t, outcome.Contract.RemainingAmount.Equal(decimal.NewFromInt(100)))
	require.Equal(t, schedule.InstallmentPending, outcome.Installment.Status)
}
