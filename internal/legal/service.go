package legal

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

func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateCaseRequest) (Case, error) {
	if err := shared.Validate(req); err != nil {
		return Case{}, err
	}

	created, err := s.repo.Create(ctx, Case{
		TenantID:   id.TenantID,
		Number:     req.Number,
		ContractID: req.ContractID,
		DebtorName: req.DebtorName,
		Court:      req.Court,
		Status:     CaseOpen,
		Notes:      req.Notes,
		CreatedBy:  id.UserID,
	})
	if err != nil {
		return Case{}, err
	}
	s.recordAudit(ctx, id, "case.create", created.ID, map[string]any{"number": created.Number})
	return created, nil
}

func (s *Service) Get(ctx context.Context, id shared.Identity, caseID int64) (Case, error) {
	return s.repo.Get(ctx, id.TenantID, caseID)
}

func (s *Service) List(ctx context.Context, id shared.Identity, req ListCasesRequest) ([]Case, int, error) {
	return s.repo.List(ctx, id.TenantID, req)
}

func (s *Service) Update(ctx context.Context, id shared.Identity, caseID int64, req UpdateCaseRequest) (Case, error) {
	if err := shared.Validate(req); err != nil {
		return Case{}, err
	}
	if err := s.repo.Update(ctx, id.TenantID, caseID, req); err != nil {
		return Case{}, err
	}
	s.recordAudit(ctx, id, "case.update", caseID, nil)
	return s.repo.Get(ctx, id.TenantID, caseID)
}

// Transition advances the case through its lifecycle. Backward or skipped
// moves are conflicts.
func (s *Service) Transition(ctx context.Context, id shared.Identity, caseID int64, req TransitionRequest) (Case, error) {
	if err := shared.Validate(req); err != nil {
		return Case{}, err
	}

	current, err := s.repo.Get(ctx, id.TenantID, caseID)
	if err != nil {
		return Case{}, err
	}
	if !CanTransition(current.Status, req.Status) {
		return Case{}, fmt.Errorf("%w: cannot move case from %s to %s", shared.ErrConflict, current.Status, req.Status)
	}

	if err := s.repo.SetStatus(ctx, id.TenantID, caseID, req.Status); err != nil {
		return Case{}, err
	}
	s.recordAudit(ctx, id, "case.transition", caseID, map[string]any{
		"from": string(current.Status),
		"to":   string(req.Status),
	})
	return s.repo.Get(ctx, id.TenantID, caseID)
}

// AddHearing appends a hearing entry. Closed cases accept no further hearings.
func (s *Service) AddHearing(ctx context.Context, id shared.Identity, caseID int64, req AddHearingRequest) (Hearing, error) {
	if err := shared.Validate(req); err != nil {
		return Hearing{}, err
	}

	current, err := s.repo.Get(ctx, id.TenantID, caseID)
	if err != nil {
		return Hearing{}, err
	}
	if current.Status == CaseClosed {
		return Hearing{}, fmt.Errorf("%w: case is closed", shared.ErrConflict)
	}

	hearing, err := s.repo.AddHearing(ctx, id.TenantID, caseID, Hearing{Date: req.Date, Notes: req.Notes})
	if err != nil {
		return Hearing{}, err
	}
	s.recordAudit(ctx, id, "case.hearing", caseID, map[string]any{"date": req.Date.Format("2006-01-02")})
	return hearing, nil
}

func (s *Service) Delete(ctx context.Context, id shared.Identity, caseID int64) error {
	if err := s.repo.SoftDelete(ctx, id.TenantID, caseID); err != nil {
		return err
	}
	s.recordAudit(ctx, id, "case.delete", caseID, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, id shared.Identity, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: id.TenantID,
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "legal_case",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       time.Now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
