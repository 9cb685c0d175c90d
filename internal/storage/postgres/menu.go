package postgres

import (
	"context"
	"math"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro/internal/domain/catalog"
)

const (
	listMenuSQL = `SELECT id, name, price, available, description, image_url
		FROM menu_items ORDER BY name, id`

	getMenuByIDsSQL = `SELECT id, name, price, available, description, image_url
		FROM menu_items WHERE id = ANY($1)`

	upsertMenuItemSQL = `INSERT INTO menu_items (id, name, price, available, description, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			available = EXCLUDED.available,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			updated_at = now()`
)

var _ catalog.Repository = (*MenuRepository)(nil)

// MenuRepository implements catalog.Repository backed by PostgreSQL. Prices
// are stored in major currency units and exposed in minor units.
type MenuRepository struct {
	pool     *pgxpool.Pool
	exponent int32
}

// NewMenuRepository returns a MenuRepository. exponent is the number of
// minor units digits of the currency (0 for VND, 2 for USD).
func NewMenuRepository(pool *pgxpool.Pool, exponent int32) *MenuRepository {
	return &MenuRepository{pool: pool, exponent: exponent}
}

// List returns the whole menu ordered by name.
func (r *MenuRepository) List(ctx context.Context) ([]catalog.MenuItem, error) {
	rows, err := r.pool.Query(ctx, listMenuSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list menu")
	}
	items, err := pgx.CollectRows(rows, r.scanMenuItem)
	if err != nil {
		return nil, errors.Wrap(err, "list menu")
	}
	return items, nil
}

// GetByIDs returns the items matching ids. Unknown ids are omitted.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.MenuItem, error) {
	rows, err := r.pool.Query(ctx, getMenuByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get menu items by ids")
	}
	items, err := pgx.CollectRows(rows, r.scanMenuItem)
	if err != nil {
		return nil, errors.Wrap(err, "get menu items by ids")
	}
	return items, nil
}

// Upsert inserts or replaces menu items in one transaction.
func (r *MenuRepository) Upsert(ctx context.Context, items []catalog.MenuItem) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, it := range items {
			if _, err := tx.Exec(ctx, upsertMenuItemSQL,
				it.ID, it.Name, FromMinor(it.UnitPrice, r.exponent), it.Available, it.Description, it.ImageURL,
			); err != nil {
				return errors.Wrapf(err, "upsert menu item %q", it.ID)
			}
		}
		return nil
	})
}

func (r *MenuRepository) scanMenuItem(row pgx.CollectableRow) (catalog.MenuItem, error) {
	var (
		it    catalog.MenuItem
		price decimal.Decimal
	)
	if err := row.Scan(&it.ID, &it.Name, &price, &it.Available, &it.Description, &it.ImageURL); err != nil {
		return it, err
	}
	minor, err := ToMinor(price, r.exponent)
	if err != nil {
		return it, errors.Wrapf(err, "menu item %q", it.ID)
	}
	it.UnitPrice = minor
	return it, nil
}

// ToMinor converts a major unit amount to minor units. Amounts with more
// fractional digits than exponent are rejected.
func ToMinor(amount decimal.Decimal, exponent int32) (int64, error) {
	shifted := amount.Shift(exponent)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, errors.Errorf("amount %s has more than %d fractional digits", amount, exponent)
	}
	if shifted.IsNegative() || shifted.Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 {
		return 0, errors.Errorf("amount %s out of range", amount)
	}
	return shifted.IntPart(), nil
}

// FromMinor converts minor units to a major unit amount.
func FromMinor(minor int64, exponent int32) decimal.Decimal {
	return decimal.New(minor, -exponent)
}
