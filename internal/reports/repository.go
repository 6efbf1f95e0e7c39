package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

type Repository interface {
	PortfolioSummary(ctx context.Context, tenantID int64) (PortfolioSummary, error)
	InstallmentBook(ctx context.Context, tenantID int64, contractID *int64) ([]BookRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) PortfolioSummary(ctx context.Context, tenantID int64) (PortfolioSummary, error) {
	var (
		s                          PortfolioSummary
		cOutstanding, dRecovered   pgtype.Numeric
		dOutstanding, monthReceipt pgtype.Numeric
	)

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(GREATEST(total_amount - paid_amount, 0)), 0)
		FROM contracts WHERE tenant_id = $1 AND is_deleted = FALSE`, tenantID,
	).Scan(&s.ContractsTotal, &s.ContractsActive, &s.ContractsCompleted, &cOutstanding)
	if err != nil {
		return PortfolioSummary{}, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(collected_amount), 0),
			COALESCE(SUM(GREATEST(total_amount - collected_amount, 0)), 0)
		FROM collections WHERE tenant_id = $1 AND is_deleted = FALSE`, tenantID,
	).Scan(&s.CollectionsTotal, &dRecovered, &dOutstanding)
	if err != nil {
		return PortfolioSummary{}, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM contract_installments
				WHERE tenant_id = $1 AND status = 'overdue' AND is_deleted = FALSE) +
			(SELECT COUNT(*) FROM collection_installments
				WHERE tenant_id = $1 AND status = 'overdue' AND is_deleted = FALSE)`, tenantID,
	).Scan(&s.OverdueInstallments)
	if err != nil {
		return PortfolioSummary{}, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM receipts
		WHERE tenant_id = $1 AND status = 'posted'
			AND received_at >= date_trunc('month', CURRENT_DATE)`, tenantID,
	).Scan(&monthReceipt)
	if err != nil {
		return PortfolioSummary{}, err
	}

	s.ContractsOutstanding = db.NumericToDecimal(cOutstanding)
	s.CollectionsRecovered = db.NumericToDecimal(dRecovered)
	s.CollectionsOutstanding = db.NumericToDecimal(dOutstanding)
	s.ReceiptsThisMonth = db.NumericToDecimal(monthReceipt)
	s.GeneratedAt = time.Now().UTC()
	return s, nil
}

func (r *repository) InstallmentBook(ctx context.Context, tenantID int64, contractID *int64) ([]BookRow, error) {
	query := `
		SELECT c.number, COALESCE(cu.name, ''), i.installment_number, i.due_date, i.amount, i.paid_amount, i.status
		FROM contract_installments i
		JOIN contracts c ON c.id = i.contract_id
		LEFT JOIN customers cu ON cu.id = c.customer_id
		WHERE i.tenant_id = $1 AND i.is_deleted = FALSE AND c.is_deleted = FALSE`
	args := []interface{}{tenantID}
	if contractID != nil {
		query += ` AND c.id = $2`
		args = append(args, *contractID)
	}
	query += ` ORDER BY c.number, i.installment_number`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	book := make([]BookRow, 0)
	for rows.Next() {
		var (
			row          BookRow
			amount, paid pgtype.Numeric
		)
		if err := rows.Scan(&row.ContractNumber, &row.CustomerName, &row.Number, &row.DueDate, &amount, &paid, &row.Status); err != nil {
			return nil, err
		}
		row.Amount = db.NumericToDecimal(amount)
		row.PaidAmount = db.NumericToDecimal(paid)
		book = append(book, row)
	}
	return book, rows.Err()
}
