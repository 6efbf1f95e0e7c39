package customers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	customers map[int64]*Customer
	deleted   map[int64]bool
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{customers: make(map[int64]*Customer), deleted: make(map[int64]bool)}
}

func (m *memoryRepo) Create(ctx context.Context, c Customer) (Customer, error) {
	if c.NationalID != nil {
		for _, existing := range m.customers {
			if existing.TenantID == c.TenantID && existing.NationalID != nil &&
				*existing.NationalID == *c.NationalID && !m.deleted[existing.ID] {
				return Customer{}, shared.ErrDuplicate
			}
		}
	}
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := c
	m.customers[c.ID] = &stored
	return c, nil
}

func (m *memoryRepo) Get(ctx context.Context, tenantID, id int64) (Customer, error) {
	c, ok := m.customers[id]
	if !ok || m.deleted[id] || c.TenantID != tenantID {
		return Customer{}, shared.ErrNotFound
	}
	return *c, nil
}

func (m *memoryRepo) List(ctx context.Context, tenantID int64, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for id, c := range m.customers {
		if c.TenantID != tenantID || m.deleted[id] {
			continue
		}
		if req.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(ctx context.Context, tenantID, id int64, req UpdateCustomerRequest) error {
	c, ok := m.customers[id]
	if !ok || m.deleted[id] || c.TenantID != tenantID {
		return shared.ErrNotFound
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.CreditLimit != nil {
		c.CreditLimit = *req.CreditLimit
	}
	return nil
}

func (m *memoryRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	c, ok := m.customers[id]
	if !ok || m.deleted[id] || c.TenantID != tenantID {
		return shared.ErrNotFound
	}
	m.deleted[id] = true
	return nil
}

var testIdentity = shared.Identity{TenantID: 7, UserID: 3}

func TestCreateCustomer(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	nid := "29001011234567"
	limit := decimal.NewFromInt(5000)
	created, err := svc.Create(context.Background(), testIdentity, CreateCustomerRequest{
		Name:        "Mohamed Salah",
		NationalID:  &nid,
		CreditLimit: &limit,
	})
	require.NoError(t, err)
	require.Equal(t, testIdentity.TenantID, created.TenantID)
	require.True(t, created.CreditLimit.Equal(limit))

	_, err = svc.Create(context.Background(), testIdentity, CreateCustomerRequest{Name: "Other", NationalID: &nid})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateRejectsNegativeCreditLimit(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	limit := decimal.NewFromInt(-1)
	_, err := svc.Create(context.Background(), testIdentity, CreateCustomerRequest{Name: "X", CreditLimit: &limit})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	_, err := svc.Create(context.Background(), testIdentity, CreateCustomerRequest{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateAndGet(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, CreateCustomerRequest{Name: "Before"})
	require.NoError(t, err)

	name := "After"
	updated, err := svc.Update(context.Background(), testIdentity, created.ID, UpdateCustomerRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "After", updated.Name)
}

func TestTenantIsolation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, CreateCustomerRequest{Name: "Isolated"})
	require.NoError(t, err)

	other := shared.Identity{TenantID: 99, UserID: 1}
	_, err = svc.Get(context.Background(), other, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteCustomer(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, CreateCustomerRequest{Name: "Gone"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), testIdentity, created.ID))

	_, err = svc.Get(context.Background(), testIdentity, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
