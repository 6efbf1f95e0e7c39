package hr

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
	Create(ctx context.Context, e Employee) (Employee, error)
	Get(ctx context.Context, tenantID, id int64) (Employee, error)
	List(ctx context.Context, tenantID int64, req ListEmployeesRequest) ([]Employee, int, error)
	Update(ctx context.Context, tenantID, id int64, req UpdateEmployeeRequest) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const employeeColumns = `id, tenant_id, code, name, position, phone, salary, hire_date, active,
	created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, e Employee) (Employee, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (tenant_id, code, name, position, phone, salary, hire_date, active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
		RETURNING id, active, created_at, updated_at`,
		e.TenantID, e.Code, e.Name, e.Position, e.Phone, e.Salary.String(), e.HireDate, e.CreatedBy,
	).Scan(&e.ID, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Employee{}, mapPgError(err)
	}
	return e, nil
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+`
		FROM employees WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, shared.ErrNotFound
		}
		return Employee{}, err
	}
	return e, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, req ListEmployeesRequest) ([]Employee, int, error) {
	where := ` WHERE tenant_id = $1 AND is_deleted = FALSE`
	args := []interface{}{tenantID}
	argCount := 1

	if req.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+req.Search+"%")
	}
	if req.Active != nil {
		argCount++
		where += ` AND active = $` + strconv.Itoa(argCount)
		args = append(args, *req.Active)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + employeeColumns + ` FROM employees` + where +
		` ORDER BY name` +
		` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	employees := make([]Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, e)
	}
	return employees, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, tenantID, id int64, req UpdateEmployeeRequest) error {
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
	if req.Position != nil {
		add("position", *req.Position)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Salary != nil {
		add("salary", req.Salary.String())
	}
	if req.Active != nil {
		add("active", *req.Active)
	}

	query := `UPDATE employees SET ` + set +
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
		UPDATE employees SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var (
		e      Employee
		phone  pgtype.Text
		salary pgtype.Numeric
	)
	err := row.Scan(&e.ID, &e.TenantID, &e.Code, &e.Name, &e.Position, &phone, &salary,
		&e.HireDate, &e.Active, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Employee{}, err
	}
	e.Salary = db.NumericToDecimal(salary)
	if phone.Valid {
		v := phone.String
		e.Phone = &v
	}
	return e, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
