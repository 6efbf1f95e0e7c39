package customers

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

type Repository interface {
	Create(ctx context.Context, c Customer) (Customer, error)
	Get(ctx context.Context, tenantID, id int64) (Customer, error)
	List(ctx context.Context, tenantID int64, req ListCustomersRequest) ([]Customer, int, error)
	Update(ctx context.Context, tenantID, id int64, req UpdateCustomerRequest) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, tenant_id, name, national_id, phone, phone2, address, employer,
	credit_limit, notes, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c Customer) (Customer, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (tenant_id, name, national_id, phone, phone2, address, employer, credit_limit, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		c.TenantID, c.Name, c.NationalID, c.Phone, c.Phone2, c.Address, c.Employer,
		c.CreditLimit.String(), c.Notes, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Customer{}, mapPgError(err)
	}
	return c, nil
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+`
		FROM customers WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, shared.ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, req ListCustomersRequest) ([]Customer, int, error) {
	where := ` WHERE tenant_id = $1 AND is_deleted = FALSE`
	args := []interface{}{tenantID}
	argCount := 1

	if req.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) +
			` OR national_id ILIKE $` + strconv.Itoa(argCount) +
			` OR phone ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where +
		` ORDER BY name` +
		` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, tenantID, id int64, req UpdateCustomerRequest) error {
	set := `updated_at = NOW()`
	args := []interface{}{}
	argCount := 0

	add := func(column string, value interface{}) {
		argCount++
		set += `, ` + column + ` = $` + strconv.Itoa(argCount)
		args = append(args, value)
	}
	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.NationalID != nil {
		add("national_id", *req.NationalID)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Phone2 != nil {
		add("phone2", *req.Phone2)
	}
	if req.Address != nil {
		add("address", *req.Address)
	}
	if req.Employer != nil {
		add("employer", *req.Employer)
	}
	if req.CreditLimit != nil {
		add("credit_limit", req.CreditLimit.String())
	}
	if req.Notes != nil {
		add("notes", *req.Notes)
	}

	query := `UPDATE customers SET ` + set +
		` WHERE id = $` + strconv.Itoa(argCount+1) +
		` AND tenant_id = $` + strconv.Itoa(argCount+2) + ` AND is_deleted = FALSE`
	args = append(args, id, tenantID)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var (
		c                                        Customer
		nationalID, phone, phone2, addr, emp, nt pgtype.Text
		credit                                   pgtype.Numeric
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &nationalID, &phone, &phone2, &addr, &emp,
		&credit, &nt, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Customer{}, err
	}
	c.CreditLimit = db.NumericToDecimal(credit)
	for _, pair := range []struct {
		src pgtype.Text
		dst **string
	}{
		{nationalID, &c.NationalID}, {phone, &c.Phone}, {phone2, &c.Phone2},
		{addr, &c.Address}, {emp, &c.Employer}, {nt, &c.Notes},
	} {
		if pair.src.Valid {
			v := pair.src.String
			*pair.dst = &v
		}
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
