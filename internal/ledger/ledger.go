package ledger

import (
	"context"

	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
	"github.com/ariefcatur/go-ticket-payments.git/internal/payments"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Queries is the read side: projections only, no business logic, never a
// status decision.
type Queries struct {
	Orders   *orders.Repo
	Payments *payments.PGStore
}

type Page struct {
	CurrentPage int  `json:"current_page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
}

func pageOf(page, limit, total int) Page {
	totalPages := (total + limit - 1) / limit
	return Page{
		CurrentPage: page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

func clamp(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func (q *Queries) OrderStatus(ctx context.Context, orderID string) (orders.Status, error) {
	return q.Orders.GetStatus(ctx, orderID)
}

func (q *Queries) ListOrders(ctx context.Context, status orders.Status, page, limit int) ([]orders.Order, Page, error) {
	page, limit = clamp(page, limit)
	list, total, err := q.Orders.List(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, Page{}, err
	}
	return list, pageOf(page, limit, total), nil
}

// PaymentHistory returns an order's audit trail, newest first.
func (q *Queries) PaymentHistory(ctx context.Context, orderID string) ([]payments.Record, error) {
	return q.Payments.History(ctx, orderID)
}

type PaymentsFilter struct {
	OrderID string
	Status  payments.RecordStatus
	Page    int
	Limit   int
}

func (q *Queries) ListPayments(ctx context.Context, f PaymentsFilter) ([]payments.Record, Page, error) {
	page, limit := clamp(f.Page, f.Limit)
	list, total, err := q.Payments.ListRecords(ctx, payments.RecordFilter{
		OrderID: f.OrderID,
		Status:  f.Status,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	})
	if err != nil {
		return nil, Page{}, err
	}
	return list, pageOf(page, limit, total), nil
}
