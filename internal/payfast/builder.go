package payfast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
)

var (
	ErrOrderNotPending    = errors.New("order is not pending")
	ErrInvalidAmount      = errors.New("order amount must be positive")
	ErrMissingCredentials = errors.New("merchant credentials not configured")
)

// Request is what the caller hands to the client: the checkout endpoint plus
// the signed form fields. The passphrase and secured key never appear in it.
type Request struct {
	Endpoint string            `json:"endpoint"`
	Fields   map[string]string `json:"fields"`
}

type Builder struct {
	profile Profile
	signer  *Signer
}

func NewBuilder(p Profile, s *Signer) *Builder {
	return &Builder{profile: p, signer: s}
}

// BuildRequest produces the signed payment-initiation payload for a pending
// order. Pure: persisting the matching audit record is the caller's job.
func (b *Builder) BuildRequest(o *orders.Order) (*Request, error) {
	if o.Status != orders.StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotPending, o.OrderID, o.Status)
	}
	if o.TotalAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, o.TotalAmount)
	}
	if b.profile.MerchantID == "" || b.profile.MerchantKey == "" {
		return nil, ErrMissingCredentials
	}

	fields := map[string]string{
		"merchant_id":      b.profile.MerchantID,
		"merchant_key":     b.profile.MerchantKey,
		"return_url":       b.profile.ReturnURL,
		"cancel_url":       b.profile.CancelURL,
		"notify_url":       b.profile.NotifyURL,
		"name_first":       o.Customer.Name,
		"name_last":        "",
		"email_address":    o.Customer.Email,
		"m_payment_id":     o.OrderID,
		"amount":           o.TotalAmount.StringFixed(2),
		"item_name":        "Event tickets",
		"item_description": describeItems(o.LineItems),
	}
	sig, err := b.signer.Sign(fields)
	if err != nil {
		return nil, err
	}
	fields["signature"] = sig
	return &Request{Endpoint: b.profile.Endpoint, Fields: fields}, nil
}

func describeItems(items []orders.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s (day %d)", it.Quantity, it.TicketType, it.EventDay))
	}
	return strings.Join(parts, ", ")
}
