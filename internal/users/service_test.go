package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	users   map[int64]*User
	deleted map[int64]bool
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]*User), deleted: make(map[int64]bool)}
}

func (m *memoryRepo) Create(ctx context.Context, u User) (User, error) {
	for _, existing := range m.users {
		if existing.TenantID == u.TenantID && existing.Email == u.Email && !m.deleted[existing.ID] {
			return User{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.Active = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	stored := u
	m.users[u.ID] = &stored
	return u, nil
}

func (m *memoryRepo) Get(ctx context.Context, tenantID, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok || m.deleted[id] || u.TenantID != tenantID {
		return User{}, shared.ErrNotFound
	}
	return *u, nil
}

func (m *memoryRepo) GetByEmail(ctx context.Context, tenantID int64, email string) (User, error) {
	for id, u := range m.users {
		if u.TenantID == tenantID && u.Email == email && !m.deleted[id] {
			return *u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (m *memoryRepo) List(ctx context.Context, tenantID int64, req ListUsersRequest) ([]User, int, error) {
	var out []User
	for id, u := range m.users {
		if u.TenantID != tenantID || m.deleted[id] {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(ctx context.Context, tenantID, id int64, req UpdateUserRequest) error {
	u, ok := m.users[id]
	if !ok || m.deleted[id] || u.TenantID != tenantID {
		return shared.ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	return nil
}

func (m *memoryRepo) SetPasswordHash(ctx context.Context, tenantID, id int64, hash string) error {
	u, ok := m.users[id]
	if !ok || m.deleted[id] || u.TenantID != tenantID {
		return shared.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memoryRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	u, ok := m.users[id]
	if !ok || m.deleted[id] || u.TenantID != tenantID {
		return shared.ErrNotFound
	}
	m.deleted[id] = true
	return nil
}

var testIdentity = shared.Identity{TenantID: 7, UserID: 3}

func userRequest(email string) CreateUserRequest {
	return CreateUserRequest{
		Email:    email,
		Name:     "Omar Khalil",
		Role:     "accountant",
		Password: "correct horse battery",
	}
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, userRequest("omar@example.com"))
	require.NoError(t, err)

	stored := repo.users[created.ID]
	require.NotEmpty(t, stored.PasswordHash)
	require.NotEqual(t, "correct horse battery", stored.PasswordHash)
}

func TestCheckCredentials(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	_, err := svc.Create(context.Background(), testIdentity, userRequest("sara@example.com"))
	require.NoError(t, err)

	u, err := svc.CheckCredentials(context.Background(), testIdentity.TenantID, "sara@example.com", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, "sara@example.com", u.Email)

	_, err = svc.CheckCredentials(context.Background(), testIdentity.TenantID, "sara@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCheckCredentialsInactiveAccount(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, userRequest("idle@example.com"))
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(context.Background(), testIdentity, created.ID, UpdateUserRequest{Active: &inactive})
	require.NoError(t, err)

	_, err = svc.CheckCredentials(context.Background(), testIdentity.TenantID, "idle@example.com", "correct horse battery")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	created, err := svc.Create(context.Background(), testIdentity, userRequest("nour@example.com"))
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), testIdentity, created.ID, ChangePasswordRequest{Password: "a brand new phrase"})
	require.NoError(t, err)

	_, err = svc.CheckCredentials(context.Background(), testIdentity.TenantID, "nour@example.com", "a brand new phrase")
	require.NoError(t, err)
	_, err = svc.CheckCredentials(context.Background(), testIdentity.TenantID, "nour@example.com", "correct horse battery")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	_, err := svc.Create(context.Background(), testIdentity, userRequest("dup@example.com"))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), testIdentity, userRequest("dup@example.com"))
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateWeakPasswordRejected(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	req := userRequest("weak@example.com")
	req.Password = "short"
	_, err := svc.Create(context.Background(), testIdentity, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}
