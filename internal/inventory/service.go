package inventory

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

func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateItemRequest) (Item, error) {
	if err := shared.Validate(req); err != nil {
		return Item{}, err
	}
	if req.Price.IsNegative() || req.Cost.IsNegative() {
		return Item{}, fmt.Errorf("%w: price and cost cannot be negative", shared.ErrValidation)
	}

	created, err := s.repo.Create(ctx, Item{
		TenantID:  id.TenantID,
		SKU:       req.SKU,
		Name:      req.Name,
		Unit:      req.Unit,
		Price:     req.Price,
		Cost:      req.Cost,
		Quantity:  req.Quantity,
		CreatedBy: id.UserID,
	})
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, id, "item.create", created.ID, nil)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id shared.Identity, itemID int64) (Item, error) {
	return s.repo.Get(ctx, id.TenantID, itemID)
}

func (s *Service) List(ctx context.Context, id shared.Identity, req ListItemsRequest) ([]Item, int, error) {
	return s.repo.List(ctx, id.TenantID, req)
}

func (s *Service) Update(ctx context.Context, id shared.Identity, itemID int64, req UpdateItemRequest) (Item, error) {
	if err := shared.Validate(req); err != nil {
		return Item{}, err
	}
	if (req.Price != nil && req.Price.IsNegative()) || (req.Cost != nil && req.Cost.IsNegative()) {
		return Item{}, fmt.Errorf("%w: price and cost cannot be negative", shared.ErrValidation)
	}
	if err := s.repo.Update(ctx, id.TenantID, itemID, req); err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, id, "item.update", itemID, nil)
	return s.repo.Get(ctx, id.TenantID, itemID)
}

// AdjustStock applies a signed quantity delta. Decrements below zero are
// rejected with a conflict.
func (s *Service) AdjustStock(ctx context.Context, id shared.Identity, itemID int64, req AdjustStockRequest) (Item, error) {
	if err := shared.Validate(req); err != nil {
		return Item{}, err
	}

	item, err := s.repo.AdjustStock(ctx, id.TenantID, itemID, req.Delta)
	if err != nil {
		return Item{}, err
	}

	meta := map[string]any{"delta": req.Delta, "quantity": item.Quantity}
	if req.Reason != nil {
		meta["reason"] = *req.Reason
	}
	s.recordAudit(ctx, id, "item.adjust", itemID, meta)
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id shared.Identity, itemID int64) error {
	if err := s.repo.SoftDelete(ctx, id.TenantID, itemID); err != nil {
		return err
	}
	s.recordAudit(ctx, id, "item.delete", itemID, nil)
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
		Entity:   "inventory_item",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
		At:       time.Now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
