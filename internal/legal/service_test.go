package legal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	cases   map[int64]*Case
	deleted map[int64]bool
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{cases: make(map[int64]*Case), deleted: make(map[int64]bool)}
}

func (m *memoryRepo) Create(ctx context.Context, c Case) (Case, error) {
	for _, existing := range m.cases {
		if existing.TenantID == c.TenantID && existing.Number == c.Number && !m.deleted[existing.ID] {
			return Case{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := c
	m.cases[c.ID] = &stored
	return c, nil
}

func (m *memoryRepo) Get(ctx context.Context, tenantID, id int64) (Case, error) {
	c, ok := m.cases[id]
	if !ok || m.deleted[id] || c.TenantID != tenantID {
		return Case{}, shared.ErrNotFound
	}
	return *c, nil
}

func (m *memoryRepo) List(ctx context.Context, tenantID int64, req ListCasesRequest) ([]Case, int, error) {
	var out []Case
	for id, c := range m.cases {
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

func (m *memoryRepo) Update(ctx context.Context, tenantID, id int64, req UpdateCaseRequest) error {
	c, ok := m.cases[id]
	if !ok || m.deleted[id] || c.TenantID != tenantID {
		return shared.ErrNotFound
	}
	if req.Court != nil {
		c.Court = req.Court
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	return nil
}

func (m *memoryRepo) SetStatus(ctx context.Context, tenantID, id int64, status CaseStatus) error {
	c, ok := m.cases[id]
	if !ok || m.deleted[id] || c.TenantID != tenantID {
		return shared.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *memoryRepo) AddHearing(ctx context.Context, tenantID, caseID int64, h Hearing) (Hearing, error) {
	c, ok := m.cases[caseID]
	if !ok || m.deleted[caseID] || c.TenantID != tenantID {
		return Hearing{}, shared.ErrNotFound
	}
	m.nextID++
	h.ID = m.nextID
	h.CaseID = caseID
	h.CreatedAt = time.Now()
	c.Hearings = append(c.Hearings, h)
	return h, nil
}

func (m *memoryRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	c, ok := m.cases[id]
	if !ok || m.deleted[id] || c.TenantID != tenantID {
		return shared.ErrNotFound
	}
	m.deleted[id] = true
	return nil
}

var testIdentity = shared.Identity{TenantID: 7, UserID: 3}

func caseRequest(number string) CreateCaseRequest {
	return CreateCaseRequest{Number: number, DebtorName: "Ahmed Fathy"}
}

func TestCreateCaseStartsOpen(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, caseRequest("2025/441"))
	require.NoError(t, err)
	require.Equal(t, CaseOpen, created.Status)
}

func TestTransitionLifecycle(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, caseRequest("2025/442"))
	require.NoError(t, err)

	for _, next := range []CaseStatus{CaseHearing, CaseJudgment, CaseClosed} {
		c, err := svc.Transition(context.Background(), testIdentity, created.ID, TransitionRequest{Status: next})
		require.NoError(t, err)
		require.Equal(t, next, c.Status)
	}
}

func TestTransitionBackwardConflicts(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, caseRequest("2025/443"))
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), testIdentity, created.ID, TransitionRequest{Status: CaseHearing})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), testIdentity, created.ID, TransitionRequest{Status: CaseOpen})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestOpenCaseMayCloseDirectly(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, caseRequest("2025/444"))
	require.NoError(t, err)

	c, err := svc.Transition(context.Background(), testIdentity, created.ID, TransitionRequest{Status: CaseClosed})
	require.NoError(t, err)
	require.Equal(t, CaseClosed, c.Status)
}

func TestAddHearing(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, caseRequest("2025/445"))
	require.NoError(t, err)

	notes := "first session, adjourned"
	hearing, err := svc.AddHearing(context.Background(), testIdentity, created.ID, AddHearingRequest{
		Date:  time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC),
		Notes: &notes,
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, hearing.CaseID)

	c, err := svc.Get(context.Background(), testIdentity, created.ID)
	require.NoError(t, err)
	require.Len(t, c.Hearings, 1)
}

func TestAddHearingOnClosedCaseConflicts(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, caseRequest("2025/446"))
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), testIdentity, created.ID, TransitionRequest{Status: CaseClosed})
	require.NoError(t, err)

	_, err = svc.AddHearing(context.Background(), testIdentity, created.ID, AddHearingRequest{
		Date: time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}
