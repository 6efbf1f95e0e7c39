package hr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

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

func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateEmployeeRequest) (Employee, error) {
	if err := shared.Validate(req); err != nil {
		return Employee{}, err
	}
	if req.Salary.IsNegative() {
		return Employee{}, fmt.Errorf("%w: salary cannot be negative", shared.ErrValidation)
	}

	created, err := s.repo.Create(ctx, Employee{
		TenantID:  id.TenantID,
		Code:      req.Code,
		Name:      req.Name,
		Position:  req.Position,
		Phone:     req.Phone,
		Salary:    req.Salary,
		HireDate:  req.HireDate,
		CreatedBy: id.UserID,
	})
	if err != nil {
		return Employee{}, err
	}
	s.recordAudit(ctx, id, "employee.create", created.ID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id shared.Identity, employeeID int64) (Employee, error) {
	return s.repo.Get(ctx, id.TenantID, employeeID)
}

func (s *Service) List(ctx context.Context, id shared.Identity, req ListEmployeesRequest) ([]Employee, int, error) {
	return s.repo.List(ctx, id.TenantID, req)
}

func (s *Service) Update(ctx context.Context, id shared.Identity, employeeID int64, req UpdateEmployeeRequest) (Employee, error) {
	if err := shared.Validate(req); err != nil {
		return Employee{}, err
	}
	if req.Salary != nil && req.Salary.IsNegative() {
		return Employee{}, fmt.Errorf("%w: salary cannot be negative", shared.ErrValidation)
	}
	if err := s.repo.Update(ctx, id.TenantID, employeeID, req); err != nil {
		return Employee{}, err
	}
	s.recordAudit(ctx, id, "employee.update", employeeID)
	return s.repo.Get(ctx, id.TenantID, employeeID)
}

func (s *Service) Delete(ctx context.Context, id shared.Identity, employeeID int64) error {
	if err := s.repo.SoftDelete(ctx, id.TenantID, employeeID); err != nil {
		return err
	}
	s.recordAudit(ctx, id, "employee.delete", employeeID)
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
		Entity:   "employee",
		EntityID: strconv.FormatInt(entityID, 10),
		At:       time.Now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
