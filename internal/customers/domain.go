// Package customers manages the customer registry.
package customers

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"tenant_id"`
	Name        string          `json:"name"`
	NationalID  *string         `json:"national_id,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	Phone2      *string         `json:"phone2,omitempty"`
	Address     *string         `json:"address,omitempty"`
	Employer    *string         `json:"employer,omitempty"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedBy   int64           `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CreateCustomerRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	NationalID  *string          `json:"national_id,omitempty" validate:"omitempty,max=30"`
	Phone       *string          `json:"phone,omitempty" validate:"omitempty,max=30"`
	Phone2      *string          `json:"phone2,omitempty" validate:"omitempty,max=30"`
	Address     *string          `json:"address,omitempty" validate:"omitempty,max=500"`
	Employer    *string          `json:"employer,omitempty" validate:"omitempty,max=200"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

type UpdateCustomerRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	NationalID  *string          `json:"national_id,omitempty" validate:"omitempty,max=30"`
	Phone       *string          `json:"phone,omitempty" validate:"omitempty,max=30"`
	Phone2      *string          `json:"phone2,omitempty" validate:"omitempty,max=30"`
	Address     *string          `json:"address,omitempty" validate:"omitempty,max=500"`
	Employer    *string          `json:"employer,omitempty" validate:"omitempty,max=200"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

type ListCustomersRequest struct {
	Search string
	Page   int
	Limit  int
}
