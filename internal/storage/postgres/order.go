package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bistro/internal/domain/order"
)

const orderColumns = `id, customer_name, customer_phone, customer_email, lines, status, is_paid,
	payment_method, payment_timing, note, created_at`

const (
	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	importOrderSQL = createOrderSQL + ` ON CONFLICT (id) DO NOTHING`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	searchOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1::text IS NULL OR strpos(lower(customer_name), lower($1)) > 0)
		  AND ($2::text IS NULL OR lower(btrim(customer_email)) = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at, id`

	updateOrderSQL = `UPDATE orders SET
			lines = $2, status = $3, is_paid = $4,
			payment_method = $5, payment_timing = $6, note = $7,
			updated_at = now()
		WHERE id = $1 AND status = $8 AND is_paid = $9`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`

	listOrderIDsSQL = `SELECT id FROM orders`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Lines are serialized to JSON for storage in
// the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	args, err := insertArgs(o)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, createOrderSQL, args...); err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// Import inserts o unless an order with the same id exists. It reports
// whether a row was written.
func (r *OrderRepository) Import(ctx context.Context, o *order.Order) (bool, error) {
	args, err := insertArgs(o)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, importOrderSQL, args...)
	if err != nil {
		return false, errors.Wrapf(err, "import order %q", o.ID)
	}
	return tag.RowsAffected() == 1, nil
}

// Get returns the order with the given id or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &o, nil
}

// Search returns orders matching c ordered by creation time.
func (r *OrderRepository) Search(ctx context.Context, c order.Criteria) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, searchOrdersSQL,
		nullString(c.CustomerName),
		nullString(c.CustomerEmail),
		nullTime(c.From),
		nullTime(c.To),
	)
	if err != nil {
		return nil, errors.Wrap(err, "search orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "search orders")
	}
	return orders, nil
}

// Update writes o if the stored status and paid flag still equal expected.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order, expected order.State) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, lines, o.Status.String(), o.IsPaid,
		string(o.PaymentMethod), string(o.PaymentTiming), o.Note,
		expected.Status.String(), expected.IsPaid,
	)
	if err != nil {
		return errors.Wrapf(err, "update order %q", o.ID)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, o.ID).Scan(&exists); err != nil {
		return errors.Wrapf(err, "check order %q", o.ID)
	}
	if !exists {
		return order.ErrNotFound
	}
	return order.ErrConflict
}

// Each calls fn for every stored order in creation order, stopping at the
// first error.
func (r *OrderRepository) Each(ctx context.Context, fn func(o *order.Order) error) error {
	rows, err := r.pool.Query(ctx, searchOrdersSQL, nil, nil, nil, nil)
	if err != nil {
		return errors.Wrap(err, "query orders")
	}
	return eachRow(rows, fn)
}

func eachRow(rows pgx.Rows, fn func(o *order.Order) error) error {
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return errors.Wrap(err, "scan order")
		}
		if err := fn(&o); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate orders")
	}
	return nil
}

// IDs returns the ids of all stored orders.
func (r *OrderRepository) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listOrderIDsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list order ids")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "list order ids")
	}
	return ids, nil
}

func insertArgs(o *order.Order) ([]any, error) {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order lines")
	}
	return []any{
		o.ID, o.Customer.Name, o.Customer.Phone, o.Customer.Email,
		lines, o.Status.String(), o.IsPaid,
		string(o.PaymentMethod), string(o.PaymentTiming), o.Note, o.CreatedAt,
	}, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o       order.Order
		lines   []byte
		status  string
		method  string
		timing  string
		created time.Time
	)
	if err := row.Scan(
		&o.ID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Email,
		&lines, &status, &o.IsPaid, &method, &timing, &o.Note, &created,
	); err != nil {
		return o, err
	}
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return o, errors.Wrapf(err, "unmarshal lines of order %q", o.ID)
	}
	s, err := order.ParseStatus(status)
	if err != nil {
		return o, err
	}
	o.Status = s
	o.PaymentMethod = order.PaymentMethod(method)
	o.PaymentTiming = order.PaymentTiming(timing)
	o.CreatedAt = created.UTC()
	return o, nil
}

func nullString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nullTime(v time.Time) *time.Time {
	if v.IsZero() {
		return nil
	}
	return &v
}
