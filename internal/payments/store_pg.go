package payments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
)

// PGStore backs the engine with Postgres. The dedup key for callback records
// is the partial unique index on (order_id, provider_payment_id) where
// provider_payment_id <> ''; initiated/retry records carry no gateway id and
// always append.
type PGStore struct {
	DB     *pgxpool.Pool
	orders *orders.Repo
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db, orders: &orders.Repo{DB: db}}
}

func (s *PGStore) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	return s.orders.Get(ctx, orderID)
}

const upsertRecordSQL = `
	INSERT INTO payment_records(id, order_id, provider_payment_id, status,
	                            signature_verified, raw_payload, recorded_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	ON CONFLICT (order_id, provider_payment_id) WHERE provider_payment_id <> ''
	DO UPDATE SET status             = EXCLUDED.status,
	              signature_verified = EXCLUDED.signature_verified,
	              raw_payload        = EXCLUDED.raw_payload,
	              updated_at         = EXCLUDED.updated_at`

func (s *PGStore) UpsertRecord(ctx context.Context, rec *Record, change *StatusChange) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, upsertRecordSQL,
		rec.ID, rec.OrderID, rec.ProviderPaymentID, string(rec.Status),
		rec.SignatureVerified, rec.RawPayload, rec.RecordedAt, rec.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("upsert payment record: %w", err)
	}

	applied := false
	if change != nil {
		ct, err := tx.Exec(ctx, `
			UPDATE orders
			SET status         = $3,
			    transaction_id = CASE WHEN $4 <> '' THEN $4 ELSE transaction_id END,
			    updated_at     = now()
			WHERE order_id = $1 AND status = $2`,
			rec.OrderID, string(change.From), string(change.To), change.TransactionID)
		if err != nil {
			return false, fmt.Errorf("order status cas: %w", err)
		}
		applied = ct.RowsAffected() == 1
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return applied, nil
}

func (s *PGStore) CancelOrder(ctx context.Context, orderID string, from orders.Status) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		WHERE order_id=$1 AND status=$2`,
		orderID, string(from), string(orders.StatusCanceled))
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() != 1 {
		// lost the race, leave everything untouched
		return false, nil
	}
	if _, err := tx.Exec(ctx, `
		UPDATE payment_records SET status=$2, updated_at=now()
		WHERE order_id=$1`,
		orderID, string(RecordCanceled)); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

const recordColumns = `id, order_id, provider_payment_id, status, signature_verified,
	raw_payload, recorded_at, updated_at`

// History returns every record for an order, newest first.
func (s *PGStore) History(ctx context.Context, orderID string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+recordColumns+`
		FROM payment_records WHERE order_id=$1 ORDER BY recorded_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

type RecordFilter struct {
	OrderID string
	Status  RecordStatus
	Limit   int
	Offset  int
}

// ListRecords pages the aggregate ledger newest-first, with optional
// order/status filters. Returns the total matching count as well.
func (s *PGStore) ListRecords(ctx context.Context, f RecordFilter) ([]Record, int, error) {
	where := ""
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}
	if f.OrderID != "" {
		add("order_id=$%d", f.OrderID)
	}
	if f.Status != "" {
		add("status=$%d", string(f.Status))
	}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM payment_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + recordColumns + ` FROM payment_records` + where +
		fmt.Sprintf(` ORDER BY recorded_at DESC LIMIT %d OFFSET %d`, f.Limit, f.Offset)
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanRecords(rows)
	return out, total, err
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ProviderPaymentID, &r.Status,
			&r.SignatureVerified, &r.RawPayload, &r.RecordedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
