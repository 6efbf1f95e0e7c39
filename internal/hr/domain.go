// Package hr manages employee records.
package hr

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"tenant_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Position  string          `json:"position"`
	Phone     *string         `json:"phone,omitempty"`
	Salary    decimal.Decimal `json:"salary"`
	HireDate  time.Time       `json:"hire_date"`
	Active    bool            `json:"active"`
	CreatedBy int64           `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CreateEmployeeRequest struct {
	Code     string          `json:"code" validate:"required,max=40"`
	Name     string          `json:"name" validate:"required,max=200"`
	Position string          `json:"position" validate:"required,max=100"`
	Phone    *string         `json:"phone,omitempty" validate:"omitempty,max=30"`
	Salary   decimal.Decimal `json:"salary"`
	HireDate time.Time       `json:"hire_date" validate:"required"`
}

type UpdateEmployeeRequest struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Position *string          `json:"position,omitempty" validate:"omitempty,max=100"`
	Phone    *string          `json:"phone,omitempty" validate:"omitempty,max=30"`
	Salary   *decimal.Decimal `json:"salary,omitempty"`
	Active   *bool            `json:"active,omitempty"`
}

type ListEmployeesRequest struct {
	Search string
	Active *bool
	Page   int
	Limit  int
}
