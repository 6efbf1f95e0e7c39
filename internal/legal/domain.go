// Package legal manages litigation cases opened against defaulted contracts.
package legal

import "time"

// CaseStatus follows the court lifecycle. Transitions only move forward:
// open -> hearing -> judgment -> closed, except that open may close directly
// when a settlement is reached.
type CaseStatus string

const (
	CaseOpen     CaseStatus = "open"
	CaseHearing  CaseStatus = "hearing"
	CaseJudgment CaseStatus = "judgment"
	CaseClosed   CaseStatus = "closed"
)

var allowedTransitions = map[CaseStatus][]CaseStatus{
	CaseOpen:     {CaseHearing, CaseClosed},
	CaseHearing:  {CaseJudgment, CaseClosed},
	CaseJudgment: {CaseClosed},
	CaseClosed:   {},
}

// CanTransition reports whether moving from cur to next is allowed.
func CanTransition(cur, next CaseStatus) bool {
	for _, s := range allowedTransitions[cur] {
		if s == next {
			return true
		}
	}
	return false
}

type Case struct {
	ID         int64      `json:"id"`
	TenantID   int64      `json:"tenant_id"`
	Number     string     `json:"number"`
	ContractID *int64     `json:"contract_id,omitempty"`
	DebtorName string     `json:"debtor_name"`
	Court      *string    `json:"court,omitempty"`
	Status     CaseStatus `json:"status"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Hearings   []Hearing  `json:"hearings,omitempty"`
}

type Hearing struct {
	ID        int64     `json:"id"`
	CaseID    int64     `json:"case_id"`
	Date      time.Time `json:"date"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCaseRequest struct {
	Number     string  `json:"number" validate:"required,max=60"`
	ContractID *int64  `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
	DebtorName string  `json:"debtor_name" validate:"required,max=200"`
	Court      *string `json:"court,omitempty" validate:"omitempty,max=200"`
	Notes      *string `json:"notes,omitempty"`
}

type UpdateCaseRequest struct {
	Court *string `json:"court,omitempty" validate:"omitempty,max=200"`
	Notes *string `json:"notes,omitempty"`
}

type TransitionRequest struct {
	Status CaseStatus `json:"status" validate:"required,oneof=open hearing judgment closed"`
}

type AddHearingRequest struct {
	Date  time.Time `json:"date" validate:"required"`
	Notes *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ListCasesRequest struct {
	Status *CaseStatus
	Search string
	Page   int
	Limit  int
}
