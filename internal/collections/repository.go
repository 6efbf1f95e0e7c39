package collections

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

// Repository defines data access for collection files. It doubles as the
// schedule.Store the payment applicator runs against.
type Repository interface {
	schedule.Store
	Create(ctx context.Context, c Collection, drafts []schedule.Draft) (Collection, error)
	Get(ctx context.Context, tenantID, id int64) (Collection, error)
	List(ctx context.Context, tenantID int64, req ListCollectionsRequest) ([]Collection, int, error)
	Update(ctx context.Context, tenantID, id int64, req UpdateCollectionRequest) error
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

// InTx satisfies schedule.Store.
func (r *repository) InTx(ctx context.Context, fn func(context.Context, schedule.Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const collectionColumns = `id, tenant_id, number, debtor_name, debtor_phone, customer_id, assigned_to,
	total_amount, collected_amount, status, installment_count, installment_amount, first_due_date,
	notes, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c Collection, drafts []schedule.Draft) (Collection, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var firstDue pgtype.Date
		if c.FirstDueDate != nil {
			firstDue = pgtype.Date{Time: *c.FirstDueDate, Valid: true}
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO collections (tenant_id, number, debtor_name, debtor_phone, customer_id, assigned_to,
				total_amount, collected_amount, status, installment_count, installment_amount, first_due_date, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10, $11, $12, $13)
			RETURNING id, created_at, updated_at`,
			c.TenantID, c.Number, c.DebtorName, c.DebtorPhone, c.CustomerID, c.AssignedTo,
			c.TotalAmount.String(), c.Status, c.InstallmentCount, c.InstallmentAmount.String(),
			firstDue, c.Notes, c.CreatedBy,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return mapPgError(err)
		}
		for _, d := range drafts {
			_, err := tx.Exec(ctx, `
				INSERT INTO collection_installments (tenant_id, collection_id, installment_number, amount, paid_amount, due_date, status)
				VALUES ($1, $2, $3, $4, 0, $5, $6)`,
				c.TenantID, c.ID, d.Number, d.Amount.String(), d.DueDate, schedule.InstallmentPending)
			if err != nil {
				return mapPgError(err)
			}
		}
		return nil
	})
	if err != nil {
		return Collection{}, err
	}
	return r.Get(ctx, c.TenantID, c.ID)
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Collection, error) {
	row := r.db.QueryRow(ctx, `SELECT `+collectionColumns+`
		FROM collections WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	c, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Collection{}, shared.ErrNotFound
		}
		return Collection{}, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, collection_id, installment_number, amount, paid_amount, due_date, paid_date, status, created_at, updated_at
		FROM collection_installments
		WHERE collection_id = $1 AND tenant_id = $2 AND is_deleted = FALSE
		ORDER BY installment_number`, id, tenantID)
	if err != nil {
		return Collection{}, err
	}
	defer rows.Close()

	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return Collection{}, err
		}
		c.Installments = append(c.Installments, inst)
	}
	return c, rows.Err()
}

func (r *repository) List(ctx context.Context, tenantID int64, req ListCollectionsRequest) ([]Collection, int, error) {
	where := ` WHERE tenant_id = $1 AND is_deleted = FALSE`
	args := []interface{}{tenantID}
	argCount := 1

	if req.AssignedTo != nil {
		argCount++
		where += ` AND assigned_to = $` + strconv.Itoa(argCount)
		args = append(args, *req.AssignedTo)
	}
	if req.Status != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, *req.Status)
	}
	if req.Search != "" {
		argCount++
		where += ` AND (number ILIKE $` + strconv.Itoa(argCount) + ` OR debtor_name ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM collections`+where, args...).Scan(&total); err != nil {
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
	query := `SELECT ` + collectionColumns + ` FROM collections` + where +
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

	var out []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, tenantID, id int64, req UpdateCollectionRequest) error {
	query := `UPDATE collections SET updated_at = NOW()`
	var args []interface{}
	argCount := 0

	if req.DebtorName != nil {
		argCount++
		query += `, debtor_name = $` + strconv.Itoa(argCount)
		args = append(args, *req.DebtorName)
	}
	if req.DebtorPhone != nil {
		argCount++
		query += `, debtor_phone = $` + strconv.Itoa(argCount)
		args = append(args, *req.DebtorPhone)
	}
	if req.AssignedTo != nil {
		argCount++
		query += `, assigned_to = $` + strconv.Itoa(argCount)
		args = append(args, *req.AssignedTo)
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
	tag, err := r.db.Exec(ctx, `UPDATE collections SET status = $1, updated_at = NOW()
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
		tag, err := tx.Exec(ctx, `UPDATE collections SET is_deleted = TRUE, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE collection_installments SET is_deleted = TRUE, updated_at = NOW()
			WHERE collection_id = $1 AND tenant_id = $2`, id, tenantID)
		return err
	})
}

// GetParent satisfies schedule.Store.
func (r *repository) GetParent(ctx context.Context, tenantID, parentID int64) (schedule.Parent, error) {
	query := `SELECT id, total_amount, collected_amount, status FROM collections
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
		UPDATE collection_installments
		SET paid_amount = paid_amount + $1, paid_date = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND collection_id = $4 AND installment_number = $5 AND is_deleted = FALSE
		RETURNING id, collection_id, installment_number, amount, paid_amount, due_date, paid_date, status`,
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
	_, err := r.db.Exec(ctx, `UPDATE collection_installments SET status = $1, updated_at = NOW() WHERE id = $2`, status, installmentID)
	return err
}

// AddParentPayment satisfies schedule.Store with a single atomic increment.
func (r *repository) AddParentPayment(ctx context.Context, tenantID, parentID int64, amount decimal.Decimal) (schedule.Parent, error) {
	var (
		p           schedule.Parent
		total, paid pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, `
		UPDATE collections SET collected_amount = collected_amount + $1, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3 AND is_deleted = FALSE
		RETURNING id, total_amount, collected_amount, status`,
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
	_, err := r.db.Exec(ctx, `UPDATE collections SET status = $1, updated_at = NOW() WHERE id = $2`, status, parentID)
	return err
}

func scanCollection(row pgx.Row) (Collection, error) {
	var (
		c                    Collection
		total, paid, per     pgtype.Numeric
		firstDue             pgtype.Date
		phone, notes         pgtype.Text
		customerID, assigned pgtype.Int8
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.Number, &c.DebtorName, &phone, &customerID, &assigned,
		&total, &paid, &c.Status, &c.InstallmentCount, &per, &firstDue, &notes, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Collection{}, err
	}
	c.TotalAmount = db.NumericToDecimal(total)
	c.CollectedAmount = db.NumericToDecimal(paid)
	c.InstallmentAmount = db.NumericToDecimal(per)
	if phone.Valid {
		v := phone.String
		c.DebtorPhone = &v
	}
	if customerID.Valid {
		v := customerID.Int64
		c.CustomerID = &v
	}
	if assigned.Valid {
		v := assigned.Int64
		c.AssignedTo = &v
	}
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
	err := row.Scan(&inst.ID, &inst.CollectionID, &inst.Number, &amt, &paid, &due, &pd, &inst.Status, &inst.CreatedAt, &inst.UpdatedAt)
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

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
