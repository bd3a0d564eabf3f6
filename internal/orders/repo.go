package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `order_id, customer_name, customer_phone, customer_email,
	line_items, total_amount::text, status, provider, transaction_id, created_at, updated_at`

// Create persists a new order. When externalRef is set and an order with the
// same ref already exists, o is replaced with that order and existed=true is
// returned (idempotent create, DB is the source of truth).
func (r *Repo) Create(ctx context.Context, o *Order, externalRef string) (existed bool, err error) {
	if externalRef != "" {
		var id string
		err := r.DB.QueryRow(ctx, `SELECT order_id FROM orders WHERE external_ref=$1`, externalRef).Scan(&id)
		if err == nil {
			found, err := r.Get(ctx, id)
			if err != nil {
				return false, err
			}
			*o = *found
			return true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return false, err
		}
	}

	items, err := json.Marshal(o.LineItems)
	if err != nil {
		return false, err
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO orders(order_id, external_ref, customer_name, customer_phone, customer_email,
		                   line_items, total_amount, status, provider, transaction_id, created_at, updated_at)
		VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7::numeric, $8, $9, '', $10, $11)`,
		o.OrderID, externalRef, o.Customer.Name, o.Customer.Phone, o.Customer.Email,
		items, o.TotalAmount.String(), string(o.Status), o.Provider, o.CreatedAt, o.UpdatedAt)
	return false, err
}

func (r *Repo) Get(ctx context.Context, orderID string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id=$1`, orderID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, orderID)
	}
	return o, err
}

func (r *Repo) GetStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE order_id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, orderID)
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// List returns a page of orders newest-first, optionally filtered by status,
// plus the total matching count for pagination.
func (r *Repo) List(ctx context.Context, status Status, limit, offset int) ([]Order, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = ` WHERE status=$1`
		args = append(args, string(status))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*Order, error) {
	var (
		o        Order
		items    []byte
		totalStr string
	)
	if err := row.Scan(&o.OrderID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Email,
		&items, &totalStr, &o.Status, &o.Provider, &o.TransactionID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.LineItems); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("decode total amount: %w", err)
	}
	o.TotalAmount = total
	return &o, nil
}
