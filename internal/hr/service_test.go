package hr

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	employees map[int64]*Employee
	deleted   map[int64]bool
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{employees: make(map[int64]*Employee), deleted: make(map[int64]bool)}
}

func (m *memoryRepo) Create(ctx context.Context, e Employee) (Employee, error) {
	for _, existing := range m.employees {
		if existing.TenantID == e.TenantID && existing.Code == e.Code && !m.deleted[existing.ID] {
			return Employee{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	e.ID = m.nextID
	e.Active = true
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	stored := e
	m.employees[e.ID] = &stored
	return e, nil
}

func (m *memoryRepo) Get(ctx context.Context, tenantID, id int64) (Employee, error) {
	e, ok := m.employees[id]
	if !ok || m.deleted[id] || e.TenantID != tenantID {
		return Employee{}, shared.ErrNotFound
	}
	return *e, nil
}

func (m *memoryRepo) List(ctx context.Context, tenantID int64, req ListEmployeesRequest) ([]Employee, int, error) {
	var out []Employee
	for id, e := range m.employees {
		if e.TenantID != tenantID || m.deleted[id] {
			continue
		}
		if req.Active != nil && e.Active != *req.Active {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(ctx context.Context, tenantID, id int64, req UpdateEmployeeRequest) error {
	e, ok := m.employees[id]
	if !ok || m.deleted[id] || e.TenantID != tenantID {
		return shared.ErrNotFound
	}
	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Salary != nil {
		e.Salary = *req.Salary
	}
	if req.Active != nil {
		e.Active = *req.Active
	}
	return nil
}

func (m *memoryRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	e, ok := m.employees[id]
	if !ok || m.deleted[id] || e.TenantID != tenantID {
		return shared.ErrNotFound
	}
	m.deleted[id] = true
	return nil
}

var testIdentity = shared.Identity{TenantID: 7, UserID: 3}

func employeeRequest(code string) CreateEmployeeRequest {
	return CreateEmployeeRequest{
		Code:     code,
		Name:     "Sara Adel",
		Position: "collector",
		Salary:   decimal.NewFromInt(9000),
		HireDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateEmployee(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, employeeRequest("EMP-001"))
	require.NoError(t, err)
	require.True(t, created.Active)

	_, err = svc.Create(context.Background(), testIdentity, employeeRequest("EMP-001"))
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateRejectsNegativeSalary(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	req := employeeRequest("EMP-002")
	req.Salary = decimal.NewFromInt(-100)
	_, err := svc.Create(context.Background(), testIdentity, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeactivateEmployee(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, employeeRequest("EMP-003"))
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), testIdentity, created.ID, UpdateEmployeeRequest{Active: &inactive})
	require.NoError(t, err)
	require.False(t, updated.Active)
}

func TestEmployeeTenantIsolation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, employeeRequest("EMP-004"))
	require.NoError(t, err)

	other := shared.Identity{TenantID: 99, UserID: 1}
	_, err = svc.Get(context.Background(), other, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
