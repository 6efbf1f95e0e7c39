// Package reports serves portfolio dashboards and spreadsheet exports.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSummary aggregates the tenant's whole book.
type PortfolioSummary struct {
	ContractsTotal        int             `json:"contracts_total"`
	ContractsActive       int             `json:"contracts_active"`
	ContractsCompleted    int             `json:"contracts_completed"`
	ContractsOutstanding  decimal.Decimal `json:"contracts_outstanding"`
	CollectionsTotal      int             `json:"collections_total"`
	CollectionsRecovered  decimal.Decimal `json:"collections_recovered"`
	CollectionsOutstanding decimal.Decimal `json:"collections_outstanding"`
	OverdueInstallments   int             `json:"overdue_installments"`
	ReceiptsThisMonth     decimal.Decimal `json:"receipts_this_month"`
	GeneratedAt           time.Time       `json:"generated_at"`
}

// BookRow is one line of the installment book export.
type BookRow struct {
	ContractNumber string
	CustomerName   string
	Number         int
	DueDate        time.Time
	Amount         decimal.Decimal
	PaidAmount     decimal.Decimal
	Status         string
}
