package users

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateUserRequest) (User, error) {
	if err := shared.Validate(req); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	created, err := s.repo.Create(ctx, User{
		TenantID:     id.TenantID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		Role:         req.Role,
		PasswordHash: string(hash),
	})
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, id, "user.create", created.ID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id shared.Identity, userID int64) (User, error) {
	return s.repo.Get(ctx, id.TenantID, userID)
}

func (s *Service) List(ctx context.Context, id shared.Identity, req ListUsersRequest) ([]User, int, error) {
	return s.repo.List(ctx, id.TenantID, req)
}

func (s *Service) Update(ctx context.Context, id shared.Identity, userID int64, req UpdateUserRequest) (User, error) {
	if err := shared.Validate(req); err != nil {
		return User{}, err
	}
	if err := s.repo.Update(ctx, id.TenantID, userID, req); err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, id, "user.update", userID)
	return s.repo.Get(ctx, id.TenantID, userID)
}

func (s *Service) ChangePassword(ctx context.Context, id shared.Identity, userID int64, req ChangePasswordRequest) error {
	if err := shared.Validate(req); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.SetPasswordHash(ctx, id.TenantID, userID, string(hash)); err != nil {
		return err
	}
	s.recordAudit(ctx, id, "user.password", userID)
	return nil
}

// CheckCredentials verifies an email/password pair. Inactive accounts fail
// the check regardless of the password.
func (s *Service) CheckCredentials(ctx context.Context, tenantID int64, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, tenantID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, shared.ErrUnauthorized
	}
	if !u.Active {
		return User{}, shared.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, shared.ErrUnauthorized
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id shared.Identity, userID int64) error {
	if err := s.repo.SoftDelete(ctx, id.TenantID, userID); err != nil {
		return err
	}
	s.recordAudit(ctx, id, "user.delete", userID)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, id shared.Identity, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: id.TenantID,
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(entityID, 10),
		At:       time.Now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
