package contracts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/schedule"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// PaymentNotice describes a successfully applied payment for notification fan-out.
type PaymentNotice struct {
	TenantID          int64           `json:"tenant_id"`
	ContractID        int64           `json:"contract_id"`
	ContractNumber    string          `json:"contract_number"`
	InstallmentNumber *int            `json:"installment_number,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Remaining         decimal.Decimal `json:"remaining"`
}

// Notifier enqueues a payment notification. Implementations must not block.
type Notifier interface {
	PaymentReceived(ctx context.Context, notice PaymentNotice)
}

// Service handles contract business logic.
type Service struct {
	repo       Repository
	applicator *schedule.Applicator
	audit      *shared.AuditLogger
	cache      *cache.Cache
	notifier   Notifier
	logger     *slog.Logger
}

// NewService builds a contract service. Cache and notifier may be nil.
func NewService(repo Repository, audit *shared.AuditLogger, summaryCache *cache.Cache, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		applicator: schedule.NewApplicator(repo, logger),
		audit:      audit,
		cache:      summaryCache,
		notifier:   notifier,
		logger:     logger,
	}
}

// Create validates the request, generates the installment plan and persists
// contract plus installments in one transaction.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateContractRequest) (Contract, error) {
	if err := shared.Validate(req); err != nil {
		return Contract{}, err
	}
	if !req.TotalAmount.IsPositive() {
		return Contract{}, fmt.Errorf("%w: total amount must be positive", shared.ErrValidation)
	}
	if err := schedule.ValidatePlan(req.TotalAmount, req.InstallmentCount, req.InstallmentAmount); err != nil {
		return Contract{}, err
	}

	drafts := schedule.Generate(req.InstallmentCount, req.InstallmentAmount, req.FirstDueDate)

	created, err := s.repo.Create(ctx, Contract{
		TenantID:          id.TenantID,
		Number:            req.Number,
		CustomerID:        req.CustomerID,
		TotalAmount:       req.TotalAmount,
		Status:            schedule.ParentActive,
		InstallmentCount:  req.InstallmentCount,
		InstallmentAmount: req.InstallmentAmount,
		FirstDueDate:      req.FirstDueDate,
		Notes:             req.Notes,
		CreatedBy:         id.UserID,
	}, drafts)
	if err != nil {
		return Contract{}, err
	}

	s.recordAudit(ctx, id, "contract.create", created.ID, map[string]any{"number": created.Number})
	s.bump(ctx)
	return created, nil
}

// Get returns a contract with its installments.
func (s *Service) Get(ctx context.Context, id shared.Identity, contractID int64) (Contract, error) {
	return s.repo.Get(ctx, id.TenantID, contractID)
}

// List returns contracts matching the filters.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListContractsRequest) ([]Contract, int, error) {
	return s.repo.List(ctx, id.TenantID, req)
}

// Update applies a partial update and re-reconciles the status when the total
// changed, so a raised total can reopen a completed contract.
func (s *Service) Update(ctx context.Context, id shared.Identity, contractID int64, req UpdateContractRequest) (Contract, error) {
	if err := shared.Validate(req); err != nil {
		return Contract{}, err
	}
	if req.TotalAmount != nil && !req.TotalAmount.IsPositive() {
		return Contract{}, fmt.Errorf("%w: total amount must be positive", shared.ErrValidation)
	}

	current, err := s.repo.Get(ctx, id.TenantID, contractID)
	if err != nil {
		return Contract{}, err
	}
	if current.Status == schedule.ParentCancelled {
		return Contract{}, fmt.Errorf("%w: contract is cancelled", shared.ErrConflict)
	}

	if err := s.repo.Update(ctx, id.TenantID, contractID, req); err != nil {
		return Contract{}, err
	}

	updated, err := s.repo.Get(ctx, id.TenantID, contractID)
	if err != nil {
		return Contract{}, err
	}
	next := schedule.Reconcile(schedule.Parent{
		ID:          updated.ID,
		TotalAmount: updated.TotalAmount,
		PaidAmount:  updated.PaidAmount,
		Status:      updated.Status,
	})
	if next != updated.Status {
		if err := s.repo.UpdateStatus(ctx, id.TenantID, contractID, next); err != nil {
			return Contract{}, err
		}
		updated.Status = next
	}

	s.recordAudit(ctx, id, "contract.update", contractID, nil)
	s.bump(ctx)
	return updated, nil
}

// UpdateStatus is the manual operator override.
func (s *Service) UpdateStatus(ctx context.Context, id shared.Identity, contractID int64, req UpdateStatusRequest) (Contract, error) {
	if err := shared.Validate(req); err != nil {
		return Contract{}, err
	}
	if _, err := s.repo.Get(ctx, id.TenantID, contractID); err != nil {
		return Contract{}, err
	}
	if err := s.repo.UpdateStatus(ctx, id.TenantID, contractID, req.Status); err != nil {
		return Contract{}, err
	}

	meta := map[string]any{"status": string(req.Status)}
	if req.Reason != nil {
		meta["reason"] = *req.Reason
	}
	s.recordAudit(ctx, id, "contract.status", contractID, meta)
	s.bump(ctx)
	return s.repo.Get(ctx, id.TenantID, contractID)
}

// Delete soft-deletes the contract and its installments.
func (s *Service) Delete(ctx context.Context, id shared.Identity, contractID int64) error {
	if err := s.repo.SoftDelete(ctx, id.TenantID, contractID); err != nil {
		return err
	}
	s.recordAudit(ctx, id, "contract.delete", contractID, nil)
	s.bump(ctx)
	return nil
}

// ApplyPayment applies a payment to the contract, optionally targeted at one
// installment. Installment and contract updates share one transaction.
func (s *Service) ApplyPayment(ctx context.Context, id shared.Identity, contractID int64, req ApplyPaymentRequest) (PaymentOutcome, error) {
	if err := shared.Validate(req); err != nil {
		return PaymentOutcome{}, err
	}
	if !req.Amount.IsPositive() {
		return PaymentOutcome{}, fmt.Errorf("%w: payment amount must be positive", shared.ErrValidation)
	}
	return s.applyAmount(ctx, id, contractID, req.Amount, req.InstallmentNumber, true)
}

// ReverseAmount backs a posted payment out again, used when a receipt is
// voided. The reconciler moves a completed contract back to active when the
// reversal reopens its balance.
func (s *Service) ReverseAmount(ctx context.Context, id shared.Identity, contractID int64, amount decimal.Decimal, installmentNumber *int) (PaymentOutcome, error) {
	if !amount.IsPositive() {
		return PaymentOutcome{}, fmt.Errorf("%w: reversal amount must be positive", shared.ErrValidation)
	}
	return s.applyAmount(ctx, id, contractID, amount.Neg(), installmentNumber, false)
}

func (s *Service) applyAmount(ctx context.Context, id shared.Identity, contractID int64, amount decimal.Decimal, installmentNumber *int, notify bool) (PaymentOutcome, error) {
	res, err := s.applicator.Apply(ctx, id.TenantID, contractID, amount, installmentNumber)
	if err != nil {
		return PaymentOutcome{}, err
	}

	contract, err := s.repo.Get(ctx, id.TenantID, contractID)
	if err != nil {
		return PaymentOutcome{}, err
	}

	outcome := PaymentOutcome{Contract: contract}
	if res.Installment != nil {
		for i := range contract.Installments {
			if contract.Installments[i].Number == res.Installment.Number {
				outcome.Installment = &contract.Installments[i]
				break
			}
		}
	}

	s.recordAudit(ctx, id, "contract.payment", contractID, map[string]any{"amount": amount.String()})
	s.bump(ctx)

	if notify && s.notifier != nil {
		s.notifier.PaymentReceived(ctx, PaymentNotice{
			TenantID:          id.TenantID,
			ContractID:        contractID,
			ContractNumber:    contract.Number,
			InstallmentNumber: installmentNumber,
			Amount:            amount,
			Remaining:         contract.RemainingAmount,
		})
	}
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
		Entity:   "contract",
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
