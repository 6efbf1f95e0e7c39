package income

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/contracts"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	receipts map[int64]*Receipt
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{receipts: make(map[int64]*Receipt)}
}

func (m *memoryRepo) Create(ctx context.Context, rc Receipt) (Receipt, error) {
	for _, existing := range m.receipts {
		if existing.TenantID == rc.TenantID && existing.Number == rc.Number {
			return Receipt{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	rc.ID = m.nextID
	rc.CreatedAt = time.Now()
	rc.UpdatedAt = rc.CreatedAt
	stored := rc
	m.receipts[rc.ID] = &stored
	return rc, nil
}

func (m *memoryRepo) Get(ctx context.Context, tenantID, id int64) (Receipt, error) {
	rc, ok := m.receipts[id]
	if !ok || rc.TenantID != tenantID {
		return Receipt{}, shared.ErrNotFound
	}
	return *rc, nil
}

func (m *memoryRepo) List(ctx context.Context, tenantID int64, req ListReceiptsRequest) ([]Receipt, int, error) {
	var out []Receipt
	for _, rc := range m.receipts {
		if rc.TenantID != tenantID {
			continue
		}
		if req.Status != nil && rc.Status != *req.Status {
			continue
		}
		out = append(out, *rc)
	}
	return out, len(out), nil
}

func (m *memoryRepo) MarkVoided(ctx context.Context, tenantID, id int64, reason *string) error {
	rc, ok := m.receipts[id]
	if !ok || rc.TenantID != tenantID {
		return shared.ErrNotFound
	}
	if rc.Status != ReceiptPosted {
		return shared.ErrConflict
	}
	now := time.Now()
	rc.Status = ReceiptVoided
	rc.VoidReason = reason
	rc.VoidedAt = &now
	return nil
}

func (m *memoryRepo) Reinstate(ctx context.Context, tenantID, id int64) error {
	rc, ok := m.receipts[id]
	if !ok || rc.TenantID != tenantID || rc.Status != ReceiptVoided {
		return shared.ErrNotFound
	}
	rc.Status = ReceiptPosted
	rc.VoidReason = nil
	rc.VoidedAt = nil
	return nil
}

func (m *memoryRepo) HardDelete(ctx context.Context, tenantID, id int64) error {
	delete(m.receipts, id)
	return nil
}

type paymentCall struct {
	contractID int64
	amount     decimal.Decimal
	number     *int
	reversal   bool
}

type fakePayments struct {
	calls      []paymentCall
	applyErr   error
	reverseErr error
}

func (f *fakePayments) ApplyPayment(ctx context.Context, id shared.Identity, contractID int64, req contracts.ApplyPaymentRequest) (contracts.PaymentOutcome, error) {
	if f.applyErr != nil {
		return contracts.PaymentOutcome{}, f.applyErr
	}
	f.calls = append(f.calls, paymentCall{contractID: contractID, amount: req.Amount, number: req.InstallmentNumber})
	return contracts.PaymentOutcome{Contract: contracts.Contract{ID: contractID}}, nil
}

func (f *fakePayments) ReverseAmount(ctx context.Context, id shared.Identity, contractID int64, amount decimal.Decimal, installmentNumber *int) (contracts.PaymentOutcome, error) {
	if f.reverseErr != nil {
		return contracts.PaymentOutcome{}, f.reverseErr
	}
	f.calls = append(f.calls, paymentCall{contractID: contractID, amount: amount, number: installmentNumber, reversal: true})
	return contracts.PaymentOutcome{Contract: contracts.Contract{ID: contractID}}, nil
}

var testIdentity = shared.Identity{TenantID: 7, UserID: 3}

func receiptRequest(number string) CreateReceiptRequest {
	n := 1
	return CreateReceiptRequest{
		Number:            number,
		ContractID:        42,
		InstallmentNumber: &n,
		Amount:            decimal.NewFromInt(100),
		Method:            "cash",
	}
}

func TestPostAppliesPaymentToContract(t *testing.T) {
	repo := newMemoryRepo()
	payments := &fakePayments{}
	svc := NewService(repo, payments, nil, nil)

	outcome, err := svc.Post(context.Background(), testIdentity, receiptRequest("RCP-001"))
	require.NoError(t, err)
	require.Equal(t, ReceiptPosted, outcome.Receipt.Status)
	require.NotEmpty(t, outcome.Receipt.IdempotencyKey)

	require.Len(t, payments.calls, 1)
	call := payments.calls[0]
	require.Equal(t, int64(42), call.contractID)
	require.True(t, call.amount.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, call.number)
	require.Equal(t, 1, *call.number)
	require.False(t, call.reversal)
}

func TestPostDuplicateNumberNoPayment(t *testing.T) {
	repo := newMemoryRepo()
	payments := &fakePayments{}
	svc := NewService(repo, payments, nil, nil)

	_, err := svc.Post(context.Background(), testIdentity, receiptRequest("RCP-002"))
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), testIdentity, receiptRequest("RCP-002"))
	require.ErrorIs(t, err, shared.ErrDuplicate)
	require.Len(t, payments.calls, 1)
}

func TestPostRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newMemoryRepo(), &fakePayments{}, nil, nil)

	req := receiptRequest("RCP-003")
	req.Amount = decimal.Zero
	_, err := svc.Post(context.Background(), testIdentity, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestPostUnknownContractRemovesReceipt(t *testing.T) {
	repo := newMemoryRepo()
	payments := &fakePayments{applyErr: shared.ErrNotFound}
	svc := NewService(repo, payments, nil, nil)

	_, err := svc.Post(context.Background(), testIdentity, receiptRequest("RCP-004"))
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.receipts)

	receipts, total, err := svc.List(context.Background(), testIdentity, ListReceiptsRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, receipts)
}

func TestVoidReversesPayment(t *testing.T) {
	repo := newMemoryRepo()
	payments := &fakePayments{}
	svc := NewService(repo, payments, nil, nil)

	outcome, err := svc.Post(context.Background(), testIdentity, receiptRequest("RCP-005"))
	require.NoError(t, err)

	reason := "cashier error"
	voided, err := svc.Void(context.Background(), testIdentity, outcome.Receipt.ID, VoidReceiptRequest{Reason: &reason})
	require.NoError(t, err)
	require.Equal(t, ReceiptVoided, voided.Status)
	require.NotNil(t, voided.VoidedAt)
	require.Equal(t, &reason, voided.VoidReason)

	require.Len(t, payments.calls, 2)
	rev := payments.calls[1]
	require.True(t, rev.reversal)
	require.Equal(t, int64(42), rev.contractID)
	require.True(t, rev.amount.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, rev.number)
	require.Equal(t, 1, *rev.number)
}

func TestVoidTwiceConflicts(t *testing.T) {
	repo := newMemoryRepo()
	payments := &fakePayments{}
	svc := NewService(repo, payments, nil, nil)

	outcome, err := svc.Post(context.Background(), testIdentity, receiptRequest("RCP-006"))
	require.NoError(t, err)

	_, err = svc.Void(context.Background(), testIdentity, outcome.Receipt.ID, VoidReceiptRequest{})
	require.NoError(t, err)

	_, err = svc.Void(context.Background(), testIdentity, outcome.Receipt.ID, VoidReceiptRequest{})
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Len(t, payments.calls, 2)
}

// staleReadRepo models a concurrent void: Get still reports the receipt as
// posted even after another caller voided it, leaving the guarded MarkVoided
// update as the only arbiter.
type staleReadRepo struct {
	*memoryRepo
}

func (s *staleReadRepo) Get(ctx context.Context, tenantID, id int64) (Receipt, error) {
	rc, err := s.memoryRepo.Get(ctx, tenantID, id)
	if err != nil {
		return Receipt{}, err
	}
	rc.Status = ReceiptPosted
	return rc, nil
}

func TestVoidRaceReversesContractOnce(t *testing.T) {
	inner := newMemoryRepo()
	repo := &staleReadRepo{memoryRepo: inner}
	payments := &fakePayments{}
	svc := NewService(repo, payments, nil, nil)

	outcome, err := svc.Post(context.Background(), testIdentity, receiptRequest("RCP-010"))
	require.NoError(t, err)

	_, err = svc.Void(context.Background(), testIdentity, outcome.Receipt.ID, VoidReceiptRequest{})
	require.NoError(t, err)

	// Second void observed the stale posted status, yet must lose the claim
	// and leave the contract untouched.
	_, err = svc.Void(context.Background(), testIdentity, outcome.Receipt.ID, VoidReceiptRequest{})
	require.ErrorIs(t, err, shared.ErrConflict)

	reversals := 0
	for _, call := range payments.calls {
		if call.reversal {
			reversals++
		}
	}
	require.Equal(t, 1, reversals)
	require.Equal(t, ReceiptVoided, inner.receipts[outcome.Receipt.ID].Status)
}

func TestVoidReversalFailureReinstatesReceipt(t *testing.T) {
	repo := newMemoryRepo()
	payments := &fakePayments{}
	svc := NewService(repo, payments, nil, nil)

	outcome, err := svc.Post(context.Background(), testIdentity, receiptRequest("RCP-011"))
	require.NoError(t, err)

	payments.reverseErr = shared.ErrNotFound
	reason := "cashier error"
	_, err = svc.Void(context.Background(), testIdentity, outcome.Receipt.ID, VoidReceiptRequest{Reason: &reason})
	require.ErrorIs(t, err, shared.ErrNotFound)

	stored := repo.receipts[outcome.Receipt.ID]
	require.Equal(t, ReceiptPosted, stored.Status)
	require.Nil(t, stored.VoidReason)
	require.Nil(t, stored.VoidedAt)

	// The receipt survived intact, so a later void succeeds.
	payments.reverseErr = nil
	voided, err := svc.Void(context.Background(), testIdentity, outcome.Receipt.ID, VoidReceiptRequest{Reason: &reason})
	require.NoError(t, err)
	require.Equal(t, ReceiptVoided, voided.Status)
}

func TestVoidWrongTenantNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakePayments{}, nil, nil)

	outcome, err := svc.Post(context.Background(), testIdentity, receiptRequest("RCP-007"))
	require.NoError(t, err)

	other := shared.Identity{TenantID: 99, UserID: 1}
	_, err = svc.Void(context.Background(), other, outcome.Receipt.ID, VoidReceiptRequest{})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
