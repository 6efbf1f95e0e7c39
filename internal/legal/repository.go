package legal

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Repository interface {
	Create(ctx context.Context, c Case) (Case, error)
	Get(ctx context.Context, tenantID, id int64) (Case, error)
	List(ctx context.Context, tenantID int64, req ListCasesRequest) ([]Case, int, error)
	Update(ctx context.Context, tenantID, id int64, req UpdateCaseRequest) error
	SetStatus(ctx context.Context, tenantID, id int64, status CaseStatus) error
	AddHearing(ctx context.Context, tenantID, caseID int64, h Hearing) (Hearing, error)
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const caseColumns = `id, tenant_id, number, contract_id, debtor_name, court, status, notes,
	created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c Case) (Case, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO legal_cases (tenant_id, number, contract_id, debtor_name, court, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		c.TenantID, c.Number, c.ContractID, c.DebtorName, c.Court, c.Status, c.Notes, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Case{}, mapPgError(err)
	}
	return c, nil
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Case, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+caseColumns+`
		FROM legal_cases WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, shared.ErrNotFound
		}
		return Case{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, case_id, hearing_date, notes, created_at
		FROM legal_hearings WHERE case_id = $1 AND tenant_id = $2
		ORDER BY hearing_date`, id, tenantID)
	if err != nil {
		return Case{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h     Hearing
			notes pgtype.Text
		)
		if err := rows.Scan(&h.ID, &h.CaseID, &h.Date, &notes, &h.CreatedAt); err != nil {
			return Case{}, err
		}
		if notes.Valid {
			v := notes.String
			h.Notes = &v
		}
		c.Hearings = append(c.Hearings, h)
	}
	return c, rows.Err()
}

func (r *repository) List(ctx context.Context, tenantID int64, req ListCasesRequest) ([]Case, int, error) {
	where := ` WHERE tenant_id = $1 AND is_deleted = FALSE`
	args := []interface{}{tenantID}
	argCount := 1

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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM legal_cases`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + caseColumns + ` FROM legal_cases` + where +
		` ORDER BY created_at DESC` +
		` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cases := make([]Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		cases = append(cases, c)
	}
	return cases, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, tenantID, id int64, req UpdateCaseRequest) error {
	set := `updated_at = NOW()`
	args := []interface{}{}
	argCount := 0

	add := func(column string, value interface{}) {
		argCount++
		set += `, ` + column + ` = $` + strconv.Itoa(argCount)
		args = append(args, value)
	}
	if req.Court != nil {
		add("court", *req.Court)
	}
	if req.Notes != nil {
		add("notes", *req.Notes)
	}

	query := `UPDATE legal_cases SET ` + set +
		` WHERE id = $` + strconv.Itoa(argCount+1) +
		` AND tenant_id = $` + strconv.Itoa(argCount+2) + ` AND is_deleted = FALSE`
	args = append(args, id, tenantID)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, tenantID, id int64, status CaseStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE legal_cases SET status = $1, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3 AND is_deleted = FALSE`, status, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) AddHearing(ctx context.Context, tenantID, caseID int64, h Hearing) (Hearing, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO legal_hearings (tenant_id, case_id, hearing_date, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		tenantID, caseID, h.Date, h.Notes,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return Hearing{}, err
	}
	h.CaseID = caseID
	return h, nil
}

func (r *repository) SoftDelete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE legal_cases SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanCase(row pgx.Row) (Case, error) {
	var (
		c            Case
		contractID   pgtype.Int8
		court, notes pgtype.Text
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.Number, &contractID, &c.DebtorName, &court, &c.Status,
		&notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Case{}, err
	}
	if contractID.Valid {
		v := contractID.Int64
		c.ContractID = &v
	}
	if court.Valid {
		v := court.String
		c.Court = &v
	}
	if notes.Valid {
		v := notes.String
		c.Notes = &v
	}
	return c, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
