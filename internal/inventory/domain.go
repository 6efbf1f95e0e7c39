// Package inventory manages stock items. Quantity adjustments are atomic SQL
// increments so concurrent movements never lose updates.
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"tenant_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Quantity  int64           `json:"quantity"`
	CreatedBy int64           `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CreateItemRequest struct {
	SKU      string          `json:"sku" validate:"required,max=60"`
	Name     string          `json:"name" validate:"required,max=200"`
	Unit     string          `json:"unit" validate:"required,max=20"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Quantity int64           `json:"quantity" validate:"gte=0"`
}

type UpdateItemRequest struct {
	Name  *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Unit  *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Cost  *decimal.Decimal `json:"cost,omitempty"`
}

// AdjustStockRequest moves quantity by a signed delta. Negative deltas fail
// with a conflict when they would drive the quantity below zero.
type AdjustStockRequest struct {
	Delta  int64   `json:"delta" validate:"required"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=200"`
}

type ListItemsRequest struct {
	Search string
	Page   int
	Limit  int
}
