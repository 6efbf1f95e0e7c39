package inventory

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
	Create(ctx context.Context, it Item) (Item, error)
	Get(ctx context.Context, tenantID, id int64) (Item, error)
	List(ctx context.Context, tenantID int64, req ListItemsRequest) ([]Item, int, error)
	Update(ctx context.Context, tenantID, id int64, req UpdateItemRequest) error
	AdjustStock(ctx context.Context, tenantID, id, delta int64) (Item, error)
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, tenant_id, sku, name, unit, price, cost, quantity, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, it Item) (Item, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO inventory_items (tenant_id, sku, name, unit, price, cost, quantity, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		it.TenantID, it.SKU, it.Name, it.Unit, it.Price.String(), it.Cost.String(), it.Quantity, it.CreatedBy,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return Item{}, mapPgError(err)
	}
	return it, nil
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+`
		FROM inventory_items WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return it, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, req ListItemsRequest) ([]Item, int, error) {
	where := ` WHERE tenant_id = $1 AND is_deleted = FALSE`
	args := []interface{}{tenantID}
	argCount := 1

	if req.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR sku ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items` + where +
		` ORDER BY name` +
		` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, tenantID, id int64, req UpdateItemRequest) error {
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
	if req.Unit != nil {
		add("unit", *req.Unit)
	}
	if req.Price != nil {
		add("price", req.Price.String())
	}
	if req.Cost != nil {
		add("cost", req.Cost.String())
	}

	query := `UPDATE inventory_items SET ` + set +
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

// AdjustStock moves quantity by delta in one statement. The quantity guard in
// the WHERE clause makes an insufficient-stock decrement update zero rows.
func (r *repository) AdjustStock(ctx context.Context, tenantID, id, delta int64) (Item, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE inventory_items SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3 AND is_deleted = FALSE AND quantity + $1 >= 0
		RETURNING `+itemColumns, delta, id, tenantID)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.Get(ctx, tenantID, id); getErr != nil {
				return Item{}, getErr
			}
			return Item{}, shared.ErrConflict
		}
		return Item{}, err
	}
	return it, nil
}

func (r *repository) SoftDelete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE inventory_items SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		it          Item
		price, cost pgtype.Numeric
	)
	err := row.Scan(&it.ID, &it.TenantID, &it.SKU, &it.Name, &it.Unit, &price, &cost,
		&it.Quantity, &it.CreatedBy, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return Item{}, err
	}
	it.Price = db.NumericToDecimal(price)
	it.Cost = db.NumericToDecimal(cost)
	return it, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
