package payments

import (
	"errors"
	"fmt"
	"net/url"
)

var ErrValidation = errors.New("invalid callback")

// Gateway status values the outcome map recognizes; anything else counts as a
// failure.
const (
	GatewayComplete = "COMPLETE"
	GatewayPending  = "PENDING"
)

// Callback is the typed view of a gateway webhook. Only the fields the engine
// needs are lifted out; everything the gateway sent, known shape or not,
// stays verbatim in Fields for the audit record.
type Callback struct {
	OrderID           string // m_payment_id / BASKET_ID
	ProviderPaymentID string // pf_payment_id / transaction_id
	PaymentStatus     string
	Signature         string
	EmailAddress      string
	Fields            map[string]string
}

// ParseCallback validates field presence only. It never touches persisted
// state: a malformed delivery is rejected before anything is written.
func ParseCallback(form url.Values) (*Callback, error) {
	fields := make(map[string]string, len(form))
	for k := range form {
		fields[k] = form.Get(k)
	}

	cb := &Callback{
		OrderID:           firstOf(fields, "m_payment_id", "BASKET_ID"),
		ProviderPaymentID: firstOf(fields, "pf_payment_id", "transaction_id"),
		PaymentStatus:     fields["payment_status"],
		Signature:         fields["signature"],
		EmailAddress:      fields["email_address"],
		Fields:            fields,
	}
	switch {
	case cb.OrderID == "":
		return nil, fmt.Errorf("%w: missing m_payment_id", ErrValidation)
	case cb.ProviderPaymentID == "":
		return nil, fmt.Errorf("%w: missing pf_payment_id", ErrValidation)
	case cb.PaymentStatus == "":
		return nil, fmt.Errorf("%w: missing payment_status", ErrValidation)
	case cb.Signature == "":
		return nil, fmt.Errorf("%w: missing signature", ErrValidation)
	}
	// email_address must be present; empty is fine, the gateway echoes
	// whatever the initiation sent
	if _, ok := fields["email_address"]; !ok {
		return nil, fmt.Errorf("%w: missing email_address", ErrValidation)
	}
	return cb, nil
}

func firstOf(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}
