package contracts

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/schedule"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines data access for contracts and their installments. It
// doubles as the schedule.Store the payment applicator runs against.
type Repository interface {
	schedule.Store
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, c Contract, drafts []schedule.Draft) (Contract, error)
	Get(ctx context.Context, tenantID, id int64) (Contract, error)
	List(ctx context.Context, tenantID int64, req ListContractsRequest) ([]Contract, int, error)
	Update(ctx context.Context, tenantID, id int64, req UpdateContractRequest) error
	UpdateStatus(ctx context.Context, tenantID, id int64, status schedule.ParentStatus) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over the connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

// InTx satisfies schedule.Store.
func (r *repository) InTx(ctx context.Context, fn func(context.Context, schedule.Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const contractColumns = `id, tenant_id, number, customer_id, total_amount, paid_amount, status,
	installment_count, installment_amount, first_due_date, notes, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c Contract, drafts []schedule.Draft) (Contract, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO contracts (tenant_id, number, customer_id, total_amount, paid_amount, status,
				installment_count, installment_amount, first_due_date, notes, created_by)
			VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at`,
			c.TenantID, c.Number, c.CustomerID, c.TotalAmount.String(), c.Status,
			c.InstallmentCount, c.InstallmentAmount.String(), firstDueArg(c.FirstDueDate), c.Notes, c.CreatedBy,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return mapPgError(err)
		}
		for _, d := range drafts {
			_, err := tx.Exec(ctx, `
				INSERT INTO contract_installments (tenant_id, contract_id, installment_number, amount, paid_amount, due_date, status)
				VALUES ($1, $2, $3, $4, 0, $5, $6)`,
				c.TenantID, c.ID, d.Number, d.Amount.String(), d.DueDate, schedule.InstallmentPending)
			if err != nil {
				return mapPgError(err)
			}
		}
		return nil
	})
	if err != nil {
		return Contract{}, err
	}
	return r.Get(ctx, c.TenantID, c.ID)
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Contract, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contractColumns+`
		FROM contracts WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	c, err := scanContract(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, shared.ErrNotFound
		}
		return Contract{}, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, contract_id, installment_number, amount, paid_amount, due_date, paid_date, status, created_at, updated_at
		FROM contract_installments
		WHERE contract_id = $1 AND tenant_id = $2 AND is_deleted = FALSE
		ORDER BY installment_number`, id, tenantID)
	if err != nil {
		return Contract{}, err
	}
	defer rows.Close()

	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return Contract{}, err
		}
		c.Installments = append(c.Installments, inst)
	}
	return c, rows.Err()
}

func (r *repository) List(ctx context.Context, tenantID int64, req ListContractsRequest) ([]Contract, int, error) {
	where := ` WHERE tenant_id = $1 AND is_deleted = FALSE`
	args := []interface{}{tenantID}
	argCount := 1

	if req.CustomerID != nil {
		argCount++
		where += ` AND customer_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.CustomerID)
	}
	if req.Status != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, *req.Status)
	}
	if req.Search != "" {
		argCount++
		where += ` AND number ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contracts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := (req.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	argCount++
	query := `SELECT ` + contractColumns + ` FROM contracts` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, tenantID, id int64, req UpdateContractRequest) error {
	query := `UPDATE contracts SET updated_at = NOW()`
	var args []interface{}
	argCount := 0

	if req.CustomerID != nil {
		argCount++
		query += `, customer_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.CustomerID)
	}
	if req.TotalAmount != nil {
		argCount++
		query += `, total_amount = $` + strconv.Itoa(argCount)
		args = append(args, req.TotalAmount.String())
	}
	if req.Notes != nil {
		argCount++
		query += `, notes = $` + strconv.Itoa(argCount)
		args = append(args, *req.Notes)
	}

	argCount++
	query += ` WHERE id = $` + strconv.Itoa(argCount)
	args = append(args, id)
	argCount++
	query += ` AND tenant_id = $` + strconv.Itoa(argCount) + ` AND is_deleted = FALSE`
	args = append(args, tenantID)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, tenantID, id int64, status schedule.ParentStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE contracts SET status = $1, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3 AND is_deleted = FALSE`, status, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE contracts SET is_deleted = TRUE, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		// Installments follow the parent's soft delete.
		_, err = tx.Exec(ctx, `UPDATE contract_installments SET is_deleted = TRUE, updated_at = NOW()
			WHERE contract_id = $1 AND tenant_id = $2`, id, tenantID)
		return err
	})
}

// GetParent satisfies schedule.Store. Inside a transaction the row lock guards
// the subsequent increments.
func (r *repository) GetParent(ctx context.Context, tenantID, parentID int64) (schedule.Parent, error) {
	query := `SELECT id, total_amount, paid_amount, status FROM contracts
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`
	if _, inTx := r.db.(pgx.Tx); inTx {
		query += ` FOR UPDATE`
	}
	var (
		p           schedule.Parent
		total, paid pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, query, parentID, tenantID).Scan(&p.ID, &total, &paid, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Parent{}, shared.ErrNotFound
		}
		return schedule.Parent{}, err
	}
	p.TotalAmount = db.NumericToDecimal(total)
	p.PaidAmount = db.NumericToDecimal(paid)
	return p, nil
}

// AddInstallmentPayment satisfies schedule.Store with a single atomic increment.
func (r *repository) AddInstallmentPayment(ctx context.Context, tenantID, parentID int64, number int, amount decimal.Decimal, paidDate time.Time) (schedule.Installment, error) {
	var (
		inst      schedule.Installment
		amt, paid pgtype.Numeric
		due, pd   pgtype.Date
	)
	err := r.db.QueryRow(ctx, `
		UPDATE contract_installments
		SET paid_amount = paid_amount + $1, paid_date = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND contract_id = $4 AND installment_number = $5 AND is_deleted = FALSE
		RETURNING id, contract_id, installment_number, amount, paid_amount, due_date, paid_date, status`,
		amount.String(), paidDate, tenantID, parentID, number,
	).Scan(&inst.ID, &inst.ParentID, &inst.Number, &amt, &paid, &due, &pd, &inst.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Installment{}, shared.ErrNotFound
		}
		return schedule.Installment{}, err
	}
	inst.Amount = db.NumericToDecimal(amt)
	inst.PaidAmount = db.NumericToDecimal(paid)
	if due.Valid {
		inst.DueDate = due.Time
	}
	if pd.Valid {
		d := pd.Time
		inst.PaidDate = &d
	}
	return inst, nil
}

// SetInstallmentStatus satisfies schedule.Store.
func (r *repository) SetInstallmentStatus(ctx context.Context, installmentID int64, status schedule.InstallmentStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE contract_installments SET status = $1, updated_at = NOW() WHERE id = $2`, status, installmentID)
	return err
}

// AddParentPayment satisfies schedule.Store with a single atomic increment.
func (r *repository) AddParentPayment(ctx context.Context, tenantID, parentID int64, amount decimal.Decimal) (schedule.Parent, error) {
	var (
		p           schedule.Parent
		total, paid pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, `
		UPDATE contracts SET paid_amount = paid_amount + $1, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3 AND is_deleted = FALSE
		RETURNING id, total_amount, paid_amount, status`,
		amount.String(), parentID, tenantID,
	).Scan(&p.ID, &total, &paid, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Parent{}, shared.ErrNotFound
		}
		return schedule.Parent{}, err
	}
	p.TotalAmount = db.NumericToDecimal(total)
	p.PaidAmount = db.NumericToDecimal(paid)
	return p, nil
}

// SetParentStatus satisfies schedule.Store.
func (r *repository) SetParentStatus(ctx context.Context, parentID int64, status schedule.ParentStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE contracts SET status = $1, updated_at = NOW() WHERE id = $2`, status, parentID)
	return err
}

func scanContract(row pgx.Row) (Contract, error) {
	var (
		c                Contract
		total, paid, per pgtype.Numeric
		firstDue         pgtype.Date
		notes            pgtype.Text
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.Number, &c.CustomerID, &total, &paid, &c.Status,
		&c.InstallmentCount, &per, &firstDue, &notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Contract{}, err
	}
	c.TotalAmount = db.NumericToDecimal(total)
	c.PaidAmount = db.NumericToDecimal(paid)
	c.InstallmentAmount = db.NumericToDecimal(per)
	if firstDue.Valid {
		d := firstDue.Time
		c.FirstDueDate = &d
	}
	if notes.Valid {
		v := notes.String
		c.Notes = &v
	}
	c.deriveRemaining()
	return c, nil
}

func scanInstallment(row pgx.Row) (Installment, error) {
	var (
		inst      Installment
		amt, paid pgtype.Numeric
		due, pd   pgtype.Date
	)
	err := row.Scan(&inst.ID, &inst.ContractID, &inst.Number, &amt, &paid, &due, &pd, &inst.Status, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return Installment{}, err
	}
	inst.Amount = db.NumericToDecimal(amt)
	inst.PaidAmount = db.NumericToDecimal(paid)
	if due.Valid {
		inst.DueDate = due.Time
	}
	if pd.Valid {
		d := pd.Time
		inst.PaidDate = &d
	}
	inst.deriveRemaining()
	return inst, nil
}

func firstDueArg(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
