package users

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, tenantID, id int64) (User, error)
	GetByEmail(ctx context.Context, tenantID int64, email string) (User, error)
	List(ctx context.Context, tenantID int64, req ListUsersRequest) ([]User, int, error)
	Update(ctx context.Context, tenantID, id int64, req UpdateUserRequest) error
	SetPasswordHash(ctx context.Context, tenantID, id int64, hash string) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, tenant_id, email, name, role, password_hash, active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, u User) (User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (tenant_id, email, name, role, password_hash, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, active, created_at, updated_at`,
		u.TenantID, u.Email, u.Name, u.Role, u.PasswordHash,
	).Scan(&u.ID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, mapPgError(err)
	}
	return u, nil
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+`
		FROM users WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	return scanUser(row)
}

func (r *repository) GetByEmail(ctx context.Context, tenantID int64, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+`
		FROM users WHERE email = $1 AND tenant_id = $2 AND is_deleted = FALSE`, email, tenantID)
	return scanUser(row)
}

func (r *repository) List(ctx context.Context, tenantID int64, req ListUsersRequest) ([]User, int, error) {
	where := ` WHERE tenant_id = $1 AND is_deleted = FALSE`
	args := []interface{}{tenantID}
	argCount := 1

	if req.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR email ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users` + where +
		` ORDER BY name` +
		` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, tenantID, id int64, req UpdateUserRequest) error {
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
	if req.Role != nil {
		add("role", *req.Role)
	}
	if req.Active != nil {
		add("active", *req.Active)
	}

	query := `UPDATE users SET ` + set +
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

func (r *repository) SetPasswordHash(ctx context.Context, tenantID, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3 AND is_deleted = FALSE`, hash, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Role, &u.PasswordHash,
		&u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
