package orders

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func validCustomer() Customer {
	return Customer{Name: "Jane Doe", Phone: "+27821234567", Email: "jane@example.com"}
}

func validItems() []LineItem {
	return []LineItem{
		{EventDay: 1, TicketType: "VIP", Quantity: 2, Attendees: []string{"Jane", "John"}, UnitPrice: decimal.NewFromInt(500)},
		{EventDay: 2, TicketType: "General", Quantity: 3, UnitPrice: decimal.NewFromInt(300)},
	}
}

func TestNewOrder(t *testing.T) {
	o, err := New(validCustomer(), validItems(), decimal.NewFromInt(1900))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(o.OrderID, "ORD-") {
		t.Errorf("order id %q missing prefix", o.OrderID)
	}
	if o.Status != StatusPending {
		t.Errorf("status = %s, want pending", o.Status)
	}
	if o.Provider != "PayFast" {
		t.Errorf("provider = %s", o.Provider)
	}
	if o.TransactionID != "" {
		t.Errorf("transaction id preset to %q", o.TransactionID)
	}
	if !o.TotalAmount.Equal(decimal.NewFromInt(1900)) {
		t.Errorf("total = %s", o.TotalAmount)
	}
	if o.CreatedAt.IsZero() || !o.CreatedAt.Equal(o.UpdatedAt) {
		t.Errorf("timestamps not initialized together: %s / %s", o.CreatedAt, o.UpdatedAt)
	}
}

func TestNewOrderIDsUnique(t *testing.T) {
	a, _ := New(validCustomer(), validItems(), decimal.NewFromInt(1900))
	b, _ := New(validCustomer(), validItems(), decimal.NewFromInt(1900))
	if a.OrderID == b.OrderID {
		t.Errorf("duplicate order id %s", a.OrderID)
	}
}

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(c *Customer, items *[]LineItem, total *decimal.Decimal)
	}{
		{"missing name", func(c *Customer, _ *[]LineItem, _ *decimal.Decimal) { c.Name = "" }},
		{"missing phone", func(c *Customer, _ *[]LineItem, _ *decimal.Decimal) { c.Phone = "" }},
		{"no items", func(_ *Customer, items *[]LineItem, _ *decimal.Decimal) { *items = nil }},
		{"missing ticket type", func(_ *Customer, items *[]LineItem, _ *decimal.Decimal) { (*items)[0].TicketType = "" }},
		{"zero quantity", func(_ *Customer, items *[]LineItem, _ *decimal.Decimal) { (*items)[1].Quantity = 0 }},
		{"negative price", func(_ *Customer, items *[]LineItem, _ *decimal.Decimal) {
			(*items)[0].UnitPrice = decimal.NewFromInt(-10)
		}},
		{"total mismatch", func(_ *Customer, _ *[]LineItem, total *decimal.Decimal) {
			*total = decimal.NewFromInt(2000)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, items, total := validCustomer(), validItems(), decimal.NewFromInt(1900)
			tc.mut(&c, &items, &total)
			if _, err := New(c, items, total); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSubtotal(t *testing.T) {
	it := LineItem{Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")}
	if got := it.Subtotal(); !got.Equal(decimal.RequireFromString("59.97")) {
		t.Errorf("subtotal = %s, want 59.97", got)
	}
}

func TestNewOrderEmptyEmailAllowed(t *testing.T) {
	c := validCustomer()
	c.Email = ""
	if _, err := New(c, validItems(), decimal.NewFromInt(1900)); err != nil {
		t.Errorf("order without email rejected: %v", err)
	}
}
