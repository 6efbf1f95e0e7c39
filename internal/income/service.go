package income

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/contracts"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ContractPayments is the slice of the contracts service the ledger needs.
type ContractPayments interface {
	ApplyPayment(ctx context.Context, id shared.Identity, contractID int64, req contracts.ApplyPaymentRequest) (contracts.PaymentOutcome, error)
	ReverseAmount(ctx context.Context, id shared.Identity, contractID int64, amount decimal.Decimal, installmentNumber *int) (contracts.PaymentOutcome, error)
}

// Service handles receipt business logic.
type Service struct {
	repo      Repository
	contracts ContractPayments
	audit     *shared.AuditLogger
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds an income service.
func NewService(repo Repository, payments ContractPayments, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, contracts: payments, audit: audit, logger: logger, now: time.Now}
}

// PostOutcome is the response to posting a receipt.
type PostOutcome struct {
	Receipt  Receipt            `json:"receipt"`
	Contract contracts.Contract `json:"contract"`
}

// Post records the receipt and applies its amount to the linked contract. The
// receipt row is inserted first so a duplicate number fails before any money
// moves; if the contract payment then fails the row is removed again.
func (s *Service) Post(ctx context.Context, id shared.Identity, req CreateReceiptRequest) (PostOutcome, error) {
	if err := shared.Validate(req); err != nil {
		return PostOutcome{}, err
	}
	if !req.Amount.IsPositive() {
		return PostOutcome{}, fmt.Errorf("%w: receipt amount must be positive", shared.ErrValidation)
	}

	receivedAt := s.now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	created, err := s.repo.Create(ctx, Receipt{
		TenantID:          id.TenantID,
		Number:            req.Number,
		IdempotencyKey:    uuid.NewString(),
		ContractID:        req.ContractID,
		InstallmentNumber: req.InstallmentNumber,
		Amount:            req.Amount,
		Method:            req.Method,
		ReceivedAt:        receivedAt,
		Status:            ReceiptPosted,
		Notes:             req.Notes,
		CreatedBy:         id.UserID,
	})
	if err != nil {
		return PostOutcome{}, err
	}

	outcome, err := s.contracts.ApplyPayment(ctx, id, req.ContractID, contracts.ApplyPaymentRequest{
		Amount:            req.Amount,
		InstallmentNumber: req.InstallmentNumber,
	})
	if err != nil {
		if delErr := s.repo.HardDelete(ctx, id.TenantID, created.ID); delErr != nil && s.logger != nil {
			s.logger.Error("receipt cleanup failed", slog.Int64("receipt_id", created.ID), slog.Any("error", delErr))
		}
		return PostOutcome{}, err
	}

	s.recordAudit(ctx, id, "receipt.post", created.ID, map[string]any{
		"number":      created.Number,
		"contract_id": created.ContractID,
		"amount":      created.Amount.String(),
	})
	return PostOutcome{Receipt: created, Contract: outcome.Contract}, nil
}

// Get returns one receipt.
func (s *Service) Get(ctx context.Context, id shared.Identity, receiptID int64) (Receipt, error) {
	return s.repo.Get(ctx, id.TenantID, receiptID)
}

// List returns receipts matching the filters.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListReceiptsRequest) ([]Receipt, int, error) {
	return s.repo.List(ctx, id.TenantID, req)
}

// Void cancels a posted receipt and reverses its amount on the contract. The
// guarded status flip runs first, so of two concurrent voids only one claims
// the receipt and reverses the contract; if the reversal then fails the
// receipt is reinstated to posted.
func (s *Service) Void(ctx context.Context, id shared.Identity, receiptID int64, req VoidReceiptRequest) (Receipt, error) {
	if err := shared.Validate(req); err != nil {
		return Receipt{}, err
	}

	rc, err := s.repo.Get(ctx, id.TenantID, receiptID)
	if err != nil {
		return Receipt{}, err
	}
	if rc.Status == ReceiptVoided {
		return Receipt{}, fmt.Errorf("%w: receipt is already voided", shared.ErrConflict)
	}

	if err := s.repo.MarkVoided(ctx, id.TenantID, receiptID, req.Reason); err != nil {
		return Receipt{}, err
	}

	if _, err := s.contracts.ReverseAmount(ctx, id, rc.ContractID, rc.Amount, rc.InstallmentNumber); err != nil {
		if restoreErr := s.repo.Reinstate(ctx, id.TenantID, receiptID); restoreErr != nil && s.logger != nil {
			s.logger.Error("receipt reinstate failed", slog.Int64("receipt_id", receiptID), slog.Any("error", restoreErr))
		}
		return Receipt{}, err
	}

	meta := map[string]any{"number": rc.Number, "contract_id": rc.ContractID}
	if req.Reason != nil {
		meta["reason"] = *req.Reason
	}
	s.recordAudit(ctx, id, "receipt.void", receiptID, meta)
	return s.repo.Get(ctx, id.TenantID, receiptID)
}

func (s *Service) recordAudit(ctx context.Context, id shared.Identity, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: id.TenantID,
		ActorID:  id.UserID,
		Action:   action,
		Entity:   "receipt",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       time.Now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
