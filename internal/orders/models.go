package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrValidation = errors.New("invalid order")

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type LineItem struct {
	EventDay   int             `json:"event_day"`
	TicketType string          `json:"ticket_type"`
	Quantity   int             `json:"quantity"`
	Attendees  []string        `json:"attendees,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

func (it LineItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Order is owned by the state machine in status.go. Status and TransactionID
// change only through the guarded transition (repo CAS / payments store),
// never by direct assignment elsewhere.
type Order struct {
	OrderID       string          `json:"order_id"`
	Customer      Customer        `json:"customer"`
	LineItems     []LineItem      `json:"line_items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        Status          `json:"status"`
	Provider      string          `json:"provider"`
	TransactionID string          `json:"transaction_id,omitempty"` // gateway reference, set once on the paid transition
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// New validates and builds a pending order. The stated total must equal the
// sum of the line-item subtotals; a client-side total is never trusted alone.
func New(c Customer, items []LineItem, total decimal.Decimal) (*Order, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: customer name required", ErrValidation)
	}
	if c.Phone == "" {
		return nil, fmt.Errorf("%w: customer phone required", ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one line item required", ErrValidation)
	}
	sum := decimal.Zero
	for i, it := range items {
		if it.TicketType == "" {
			return nil, fmt.Errorf("%w: line item %d: ticket type required", ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line item %d: quantity must be positive", ErrValidation, i)
		}
		if it.UnitPrice.Sign() < 0 {
			return nil, fmt.Errorf("%w: line item %d: negative unit price", ErrValidation, i)
		}
		sum = sum.Add(it.Subtotal())
	}
	if !sum.Equal(total) {
		return nil, fmt.Errorf("%w: total %s does not match line items (%s)", ErrValidation, total, sum)
	}
	now := time.Now().UTC()
	return &Order{
		OrderID:     "ORD-" + uuid.NewString(),
		Customer:    c,
		LineItems:   items,
		TotalAmount: total,
		Status:      StatusPending,
		Provider:    "PayFast",
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
