package income

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines data access for receipts.
type Repository interface {
	Create(ctx context.Context, rc Receipt) (Receipt, error)
	Get(ctx context.Context, tenantID, id int64) (Receipt, error)
	List(ctx context.Context, tenantID int64, req ListReceiptsRequest) ([]Receipt, int, error)
	MarkVoided(ctx context.Context, tenantID, id int64, reason *string) error
	Reinstate(ctx context.Context, tenantID, id int64) error
	HardDelete(ctx context.Context, tenantID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over the connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const receiptColumns = `id, tenant_id, number, idempotency_key, contract_id, installment_number,
	amount, method, received_at, status, notes, void_reason, voided_at, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, rc Receipt) (Receipt, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO receipts (tenant_id, number, idempotency_key, contract_id, installment_number,
			amount, method, received_at, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		rc.TenantID, rc.Number, rc.IdempotencyKey, rc.ContractID, rc.InstallmentNumber,
		rc.Amount.String(), rc.Method, rc.ReceivedAt, rc.Status, rc.Notes, rc.CreatedBy,
	).Scan(&rc.ID, &rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		return Receipt{}, mapPgError(err)
	}
	return rc, nil
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Receipt, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+receiptColumns+`
		FROM receipts WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	rc, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, shared.ErrNotFound
		}
		return Receipt{}, err
	}
	return rc, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, req ListReceiptsRequest) ([]Receipt, int, error) {
	where := ` WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	argCount := 1

	if req.ContractID != nil {
		argCount++
		where += ` AND contract_id = $` + strconv.Itoa(argCount)
		args = append(args, *req.ContractID)
	}
	if req.Status != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, *req.Status)
	}
	if req.Method != "" {
		argCount++
		where += ` AND method = $` + strconv.Itoa(argCount)
		args = append(args, req.Method)
	}
	if req.From != nil {
		argCount++
		where += ` AND received_at >= $` + strconv.Itoa(argCount)
		args = append(args, *req.From)
	}
	if req.To != nil {
		argCount++
		where += ` AND received_at <= $` + strconv.Itoa(argCount)
		args = append(args, *req.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM receipts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + receiptColumns + ` FROM receipts` + where +
		` ORDER BY received_at DESC, id DESC` +
		` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	receipts := make([]Receipt, 0)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, rc)
	}
	return receipts, total, rows.Err()
}

// MarkVoided flips a posted receipt to voided. The status predicate makes the
// update the claim: when two voids race, the loser matches zero rows and gets
// ErrConflict before any money moves.
func (r *repository) MarkVoided(ctx context.Context, tenantID, id int64, reason *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE receipts SET status = $1, void_reason = $2, voided_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND tenant_id = $4 AND status = $5`,
		ReceiptVoided, reason, id, tenantID, ReceiptPosted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConflict
	}
	return nil
}

// Reinstate returns a voided receipt to posted. Used only when the contract
// reversal after a successful claim fails.
func (r *repository) Reinstate(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE receipts SET status = $1, void_reason = NULL, voided_at = NULL, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3 AND status = $4`,
		ReceiptPosted, id, tenantID, ReceiptVoided)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HardDelete removes a receipt row that never took effect. It exists only for
// the post compensation path; voided receipts stay in the ledger.
func (r *repository) HardDelete(ctx context.Context, tenantID, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM receipts WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return err
}

func scanReceipt(row pgx.Row) (Receipt, error) {
	var (
		rc                Receipt
		amount            pgtype.Numeric
		instNumber        pgtype.Int4
		notes, voidReason pgtype.Text
		voidedAt          pgtype.Timestamptz
	)
	err := row.Scan(&rc.ID, &rc.TenantID, &rc.Number, &rc.IdempotencyKey, &rc.ContractID, &instNumber,
		&amount, &rc.Method, &rc.ReceivedAt, &rc.Status, &notes, &voidReason, &voidedAt,
		&rc.CreatedBy, &rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		return Receipt{}, err
	}
	rc.Amount = db.NumericToDecimal(amount)
	if instNumber.Valid {
		v := int(instNumber.Int32)
		rc.InstallmentNumber = &v
	}
	if notes.Valid {
		v := notes.String
		rc.Notes = &v
	}
	if voidReason.Valid {
		v := voidReason.String
		rc.VoidReason = &v
	}
	if voidedAt.Valid {
		t := voidedAt.Time
		rc.VoidedAt = &t
	}
	return rc, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
