package payfast

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
)

func testProfile() Profile {
	return Profile{
		Name:        ProfileZA,
		Scheme:      SchemeSorted,
		Endpoint:    "https://sandbox.payfast.co.za/eng/process",
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		ReturnURL:   "https://shop.example/return",
		CancelURL:   "https://shop.example/cancel",
		NotifyURL:   "https://shop.example/api/payments/callback",
	}
}

func pendingOrder(t *testing.T) *orders.Order {
	t.Helper()
	o, err := orders.New(
		orders.Customer{Name: "Jane Doe", Phone: "+27821234567", Email: "jane@example.com"},
		[]orders.LineItem{
			{EventDay: 1, TicketType: "VIP", Quantity: 2, UnitPrice: decimal.NewFromInt(500)},
			{EventDay: 2, TicketType: "General", Quantity: 3, UnitPrice: decimal.NewFromInt(300)},
		},
		decimal.NewFromInt(1900),
	)
	if err != nil {
		t.Fatalf("building order: %v", err)
	}
	return o
}

func TestBuildRequestSignedAndVerifiable(t *testing.T) {
	signer, err := NewSigner(SchemeSorted, "jt7NOE43FZPn")
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(testProfile(), signer)

	req, err := b.BuildRequest(pendingOrder(t))
	if err != nil {
		t.Fatal(err)
	}
	if req.Endpoint != "https://sandbox.payfast.co.za/eng/process" {
		t.Errorf("endpoint = %s", req.Endpoint)
	}
	if got := req.Fields["amount"]; got != "1900.00" {
		t.Errorf("amount = %q, want 1900.00", got)
	}
	if got := req.Fields["item_description"]; got != "2x VIP (day 1), 3x General (day 2)" {
		t.Errorf("item_description = %q", got)
	}
	if got := req.Fields["m_payment_id"]; got == "" {
		t.Error("m_payment_id empty")
	}
	if !signer.Verify(req.Fields) {
		t.Error("built request does not verify against its own signer")
	}
	if _, ok := req.Fields["passphrase"]; ok {
		t.Error("passphrase leaked into outbound fields")
	}
}

func TestBuildRequestOrderedScheme(t *testing.T) {
	signer, _ := NewSigner(SchemeOrdered, "")
	b := NewBuilder(testProfile(), signer)

	req, err := b.BuildRequest(pendingOrder(t))
	if err != nil {
		t.Fatal(err)
	}
	// every ordered-scheme field must be present, empty or not
	for _, k := range orderedFields {
		if _, ok := req.Fields[k]; !ok {
			t.Errorf("missing field %s", k)
		}
	}
	if !signer.Verify(req.Fields) {
		t.Error("ordered request does not verify")
	}
}

func TestBuildRequestRejections(t *testing.T) {
	signer, _ := NewSigner(SchemeSorted, "")

	t.Run("not pending", func(t *testing.T) {
		b := NewBuilder(testProfile(), signer)
		o := pendingOrder(t)
		o.Status = orders.StatusPaid
		if _, err := b.BuildRequest(o); !errors.Is(err, ErrOrderNotPending) {
			t.Errorf("err = %v, want ErrOrderNotPending", err)
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		b := NewBuilder(testProfile(), signer)
		o := pendingOrder(t)
		o.TotalAmount = decimal.Zero
		if _, err := b.BuildRequest(o); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("err = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		b := NewBuilder(testProfile(), signer)
		o := pendingOrder(t)
		o.TotalAmount = decimal.NewFromInt(-5)
		if _, err := b.BuildRequest(o); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("err = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		p := testProfile()
		p.MerchantKey = ""
		b := NewBuilder(p, signer)
		if _, err := b.BuildRequest(pendingOrder(t)); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("err = %v, want ErrMissingCredentials", err)
		}
	})
}
