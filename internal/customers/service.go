package customers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

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

func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateCustomerRequest) (Customer, error) {
	if err := shared.Validate(req); err != nil {
		return Customer{}, err
	}
	limit := decimal.Zero
	if req.CreditLimit != nil {
		if req.CreditLimit.IsNegative() {
			return Customer{}, fmt.Errorf("%w: credit limit cannot be negative", shared.ErrValidation)
		}
		limit = *req.CreditLimit
	}

	created, err := s.repo.Create(ctx, Customer{
		TenantID:    id.TenantID,
		Name:        req.Name,
		NationalID:  req.NationalID,
		Phone:       req.Phone,
		Phone2:      req.Phone2,
		Address:     req.Address,
		Employer:    req.Employer,
		CreditLimit: limit,
		Notes:       req.Notes,
		CreatedBy:   id.UserID,
	})
	if err != nil {
		return Customer{}, err
	}
	s.recordAudit(ctx, id, "customer.create", created.ID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id shared.Identity, customerID int64) (Customer, error) {
	return s.repo.Get(ctx, id.TenantID, customerID)
}

func (s *Service) List(ctx context.Context, id shared.Identity, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, id.TenantID, req)
}

func (s *Service) Update(ctx context.Context, id shared.Identity, customerID int64, req UpdateCustomerRequest) (Customer, error) {
	if err := shared.Validate(req); err != nil {
		return Customer{}, err
	}
	if req.CreditLimit != nil && req.CreditLimit.IsNegative() {
		return Customer{}, fmt.Errorf("%w: credit limit cannot be negative", shared.ErrValidation)
	}
	if err := s.repo.Update(ctx, id.TenantID, customerID, req); err != nil {
		return Customer{}, err
	}
	s.recordAudit(ctx, id, "customer.update", customerID)
	return s.repo.Get(ctx, id.TenantID, customerID)
}

func (s *Service) Delete(ctx context.Context, id shared.Identity, customerID int64) error {
	if err := s.repo.SoftDelete(ctx, id.TenantID, customerID); err != nil {
		return err
	}
	s.recordAudit(ctx, id, "customer.delete", customerID)
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
		Entity:   "customer",
		EntityID: strconv.FormatInt(entityID, 10),
		At:       time.Now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
