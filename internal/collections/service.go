package collections

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/schedule"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles collection file business logic.
type Service struct {
	repo       Repository
	applicator *schedule.Applicator
	audit      *shared.AuditLogger
	cache      *cache.Cache
	logger     *slog.Logger
}

// NewService builds a collection service. Cache may be nil.
func NewService(repo Repository, audit *shared.AuditLogger, summaryCache *cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		applicator: schedule.NewApplicator(repo, logger),
		audit:      audit,
		cache:      summaryCache,
		logger:     logger,
	}
}

// Create validates the request, generates the recovery plan and persists the
// file plus installments in one transaction.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateCollectionRequest) (Collection, error) {
	if err := shared.Validate(req); err != nil {
		return Collection{}, err
	}
	if !req.TotalAmount.IsPositive() {
		return Collection{}, fmt.Errorf("%w: total amount must be positive", shared.ErrValidation)
	}
	if err := schedule.ValidatePlan(req.TotalAmount, req.InstallmentCount, req.InstallmentAmount); err != nil {
		return Collection{}, err
	}

	drafts := schedule.Generate(req.InstallmentCount, req.InstallmentAmount, req.FirstDueDate)

	created, err := s.repo.Create(ctx, Collection{
		TenantID:          id.TenantID,
		Number:            req.Number,
		DebtorName:        req.DebtorName,
		DebtorPhone:       req.DebtorPhone,
		CustomerID:        req.CustomerID,
		AssignedTo:        req.AssignedTo,
		TotalAmount:       req.TotalAmount,
		Status:            schedule.ParentActive,
		InstallmentCount:  req.InstallmentCount,
		InstallmentAmount: req.InstallmentAmount,
		FirstDueDate:      req.FirstDueDate,
		Notes:             req.Notes,
		CreatedBy:         id.UserID,
	}, drafts)
	if err != nil {
		return Collection{}, err
	}

	s.recordAudit(ctx, id, "collection.create", created.ID, map[string]any{"number": created.Number})
	s.bump(ctx)
	return created, nil
}

// Get returns a collection file with its installments.
func (s *Service) Get(ctx context.Context, id shared.Identity, collectionID int64) (Collection, error) {
	return s.repo.Get(ctx, id.TenantID, collectionID)
}

// List returns collection files matching the filters.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListCollectionsRequest) ([]Collection, int, error) {
	return s.repo.List(ctx, id.TenantID, req)
}

// Update applies a partial update and re-reconciles the status afterwards.
func (s *Service) Update(ctx context.Context, id shared.Identity, collectionID int64, req UpdateCollectionRequest) (Collection, error) {
	if err := shared.Validate(req); err != nil {
		return Collection{}, err
	}
	if req.TotalAmount != nil && !req.TotalAmount.IsPositive() {
		return Collection{}, fmt.Errorf("%w: total amount must be positive", shared.ErrValidation)
	}

	current, err := s.repo.Get(ctx, id.TenantID, collectionID)
	if err != nil {
		return Collection{}, err
	}
	if current.Status == schedule.ParentCancelled {
		return Collection{}, fmt.Errorf("%w: collection file is cancelled", shared.ErrConflict)
	}

	if err := s.repo.Update(ctx, id.TenantID, collectionID, req); err != nil {
		return Collection{}, err
	}

	updated, err := s.repo.Get(ctx, id.TenantID, collectionID)
	if err != nil {
		return Collection{}, err
	}
	next := schedule.Reconcile(schedule.Parent{
		ID:          updated.ID,
		TotalAmount: updated.TotalAmount,
		PaidAmount:  updated.CollectedAmount,
		Status:      updated.Status,
	})
	if next != updated.Status {
		if err := s.repo.UpdateStatus(ctx, id.TenantID, collectionID, next); err != nil {
			return Collection{}, err
		}
		updated.Status = next
	}

	s.recordAudit(ctx, id, "collection.update", collectionID, nil)
	s.bump(ctx)
	return updated, nil
}

// UpdateStatus is the manual operator override.
func (s *Service) UpdateStatus(ctx context.Context, id shared.Identity, collectionID int64, req UpdateStatusRequest) (Collection, error) {
	if err := shared.Validate(req); err != nil {
		return Collection{}, err
	}
	if _, err := s.repo.Get(ctx, id.TenantID, collectionID); err != nil {
		return Collection{}, err
	}
	if err := s.repo.UpdateStatus(ctx, id.TenantID, collectionID, req.Status); err != nil {
		return Collection{}, err
	}

	meta := map[string]any{"status": string(req.Status)}
	if req.Reason != nil {
		meta["reason"] = *req.Reason
	}
	s.recordAudit(ctx, id, "collection.status", collectionID, meta)
	s.bump(ctx)
	return s.repo.Get(ctx, id.TenantID, collectionID)
}

// Delete soft-deletes the file and its installments.
func (s *Service) Delete(ctx context.Context, id shared.Identity, collectionID int64) error {
	if err := s.repo.SoftDelete(ctx, id.TenantID, collectionID); err != nil {
		return err
	}
	s.recordAudit(ctx, id, "collection.delete", collectionID, nil)
	s.bump(ctx)
	return nil
}

// Collect records a recovered amount against the file, optionally targeted at
// one installment. Installment and file updates share one transaction.
func (s *Service) Collect(ctx context.Context, id shared.Identity, collectionID int64, req CollectRequest) (CollectionOutcome, error) {
	if err := shared.Validate(req); err != nil {
		return CollectionOutcome{}, err
	}
	if !req.Amount.IsPositive() {
		return CollectionOutcome{}, fmt.Errorf("%w: collected amount must be positive", shared.ErrValidation)
	}

	res, err := s.applicator.Apply(ctx, id.TenantID, collectionID, req.Amount, req.InstallmentNumber)
	if err != nil {
		return CollectionOutcome{}, err
	}

	collection, err := s.repo.Get(ctx, id.TenantID, collectionID)
	if err != nil {
		return CollectionOutcome{}, err
	}

	outcome := CollectionOutcome{Collection: collection}
	if res.Installment != nil {
		for i := range collection.Installments {
			if collection.Installments[i].Number == res.Installment.Number {
				outcome.Installment = &collection.Installments[i]
				break
			}
		}
	}

	s.recordAudit(ctx, id, "collection.collect", collectionID, map[string]any{"amount": req.Amount.String()})
	s.bump(ctx)
	return outcome, nil
}

func (s *Service) recordAudit(ctx context.Context, id shared.Identity, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: id.TenantID,
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "collection",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       time.Now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) bump(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("cache bump failed", slog.Any("error", err))
	}
}
