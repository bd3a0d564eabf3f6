package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-ticket-payments.git/internal/kafka"
	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
	"github.com/ariefcatur/go-ticket-payments.git/internal/payfast"
)

var ErrInvalidTransition = errors.New("invalid transition")

// Outcome is the engine-internal result of a callback after signature
// verification. An unverified payload maps to failed no matter what the
// gateway claims; that is the core security invariant.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomePending   Outcome = "pending"
	OutcomeFailed    Outcome = "failed"
)

func mapOutcome(verified bool, gatewayStatus string) Outcome {
	if !verified {
		return OutcomeFailed
	}
	switch gatewayStatus {
	case GatewayComplete:
		return OutcomeCompleted
	case GatewayPending:
		return OutcomePending
	default:
		return OutcomeFailed
	}
}

// StatusChange is a conditional order update: apply To only while the order
// is still at From (optimistic concurrency, no lock held across I/O).
type StatusChange struct {
	From, To      orders.Status
	TransactionID string
}

// Store is the engine's only mutation path into persisted state.
type Store interface {
	GetOrder(ctx context.Context, orderID string) (*orders.Order, error)
	// UpsertRecord writes the audit record and, when change is non-nil,
	// applies the conditional status update for rec.OrderID in the same
	// transaction. applied reports whether the order update took effect;
	// the record itself is always written.
	UpsertRecord(ctx context.Context, rec *Record, change *StatusChange) (applied bool, err error)
	// CancelOrder flips the order to canceled iff its status is still from,
	// marking every record of the order canceled in the same transaction.
	CancelOrder(ctx context.Context, orderID string, from orders.Status) (bool, error)
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// Engine is the single entry point for gateway callbacks and for
// initiate/retry/cancel requests.
type Engine struct {
	Store    Store
	Signer   *payfast.Signer
	Builder  *payfast.Builder
	Producer Publisher // optional
	Service  string
}

type Result struct {
	OrderID           string        `json:"order_id"`
	OrderStatus       orders.Status `json:"order_status"`
	Outcome           Outcome       `json:"outcome"`
	SignatureVerified bool          `json:"signature_verified"`
	Applied           bool          `json:"applied"` // whether this delivery advanced the order
}

// HandleCallback reconciles one gateway delivery. Safe under duplicate and
// concurrent delivery: the audit record is an idempotent upsert and the order
// moves through a compare-and-swap, so a stale duplicate reports
// Applied=false instead of clobbering a state another callback already
// advanced.
func (e *Engine) HandleCallback(ctx context.Context, cb *Callback) (*Result, error) {
	verified := e.Signer.Verify(cb.Fields)
	outcome := mapOutcome(verified, cb.PaymentStatus)

	raw, err := json.Marshal(cb.Fields)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := &Record{
		ID:                uuid.NewString(),
		OrderID:           cb.OrderID,
		ProviderPaymentID: cb.ProviderPaymentID,
		Status:            RecordStatus(outcome),
		SignatureVerified: verified,
		RawPayload:        raw,
		RecordedAt:        now,
		UpdatedAt:         now,
	}

	o, err := e.Store.GetOrder(ctx, cb.OrderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			// audit trail is written even when the order is unknown
			if _, uerr := e.Store.UpsertRecord(ctx, rec, nil); uerr != nil {
				return nil, uerr
			}
		}
		return nil, err
	}

	next := o.Status
	accepted := false
	switch outcome {
	case OutcomeCompleted:
		next, accepted = orders.Apply(o.Status, orders.EventPaymentCompleted)
	case OutcomeFailed:
		next, accepted = orders.Apply(o.Status, orders.EventPaymentFailed)
	case OutcomePending:
		// gateway still processing, nothing to advance
	}

	var change *StatusChange
	if accepted && next != o.Status {
		change = &StatusChange{From: o.Status, To: next}
		if next == orders.StatusPaid {
			change.TransactionID = cb.ProviderPaymentID
		}
	}

	applied, err := e.Store.UpsertRecord(ctx, rec, change)
	if err != nil {
		return nil, err
	}

	final := o.Status
	if applied {
		final = next
	} else if change != nil {
		// lost the race against a concurrent delivery; report what won
		if cur, gerr := e.Store.GetOrder(ctx, cb.OrderID); gerr == nil {
			final = cur.Status
		}
	}

	if applied {
		switch final {
		case orders.StatusPaid:
			e.publish(TopicPaymentCompleted, EventPaymentCompleted, cb.OrderID, PaymentCompletedPayload{
				OrderID:           cb.OrderID,
				ProviderPaymentID: cb.ProviderPaymentID,
				Amount:            cb.Fields["amount"],
			})
		case orders.StatusFailed:
			e.publish(TopicPaymentFailed, EventPaymentFailed, cb.OrderID, PaymentFailedPayload{
				OrderID:           cb.OrderID,
				GatewayStatus:     cb.PaymentStatus,
				SignatureVerified: verified,
			})
		}
	}

	return &Result{
		OrderID:           cb.OrderID,
		OrderStatus:       final,
		Outcome:           outcome,
		SignatureVerified: verified,
		Applied:           applied,
	}, nil
}

// Initiate builds the signed checkout payload for a pending order and writes
// the matching "initiated" audit record.
func (e *Engine) Initiate(ctx context.Context, orderID string) (*payfast.Request, error) {
	o, err := e.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	req, err := e.Builder.BuildRequest(o)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:         uuid.NewString(),
		OrderID:    o.OrderID,
		Status:     RecordInitiated,
		RawPayload: auditFields(req.Fields),
		RecordedAt: now,
		UpdatedAt:  now,
	}
	if _, err := e.Store.UpsertRecord(ctx, rec, nil); err != nil {
		return nil, err
	}

	e.publish(TopicPaymentInitiated, EventPaymentInitiated, o.OrderID, PaymentInitiatedPayload{
		OrderID:  o.OrderID,
		Endpoint: req.Endpoint,
		Amount:   o.TotalAmount.StringFixed(2),
	})
	return req, nil
}

// Retry resets a failed order to pending and hands back a fresh signed
// checkout payload. Only valid from failed.
func (e *Engine) Retry(ctx context.Context, orderID string) (*payfast.Request, error) {
	o, err := e.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, accepted := orders.Apply(o.Status, orders.EventRetry)
	if !accepted {
		return nil, fmt.Errorf("%w: retry from %s", ErrInvalidTransition, o.Status)
	}

	// build against the post-retry view; the reset commits with the record
	pending := *o
	pending.Status = next
	req, err := e.Builder.BuildRequest(&pending)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:         uuid.NewString(),
		OrderID:    o.OrderID,
		Status:     RecordRetry,
		RawPayload: auditFields(req.Fields),
		RecordedAt: now,
		UpdatedAt:  now,
	}
	applied, err := e.Store.UpsertRecord(ctx, rec, &StatusChange{From: o.Status, To: next})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: order %s changed concurrently", ErrInvalidTransition, orderID)
	}

	e.publish(TopicPaymentRetried, EventPaymentRetried, o.OrderID, PaymentRetriedPayload{OrderID: o.OrderID})
	return req, nil
}

// Cancel moves the order to canceled and marks its payment records canceled.
// Forbidden once the order is paid.
func (e *Engine) Cancel(ctx context.Context, orderID string) (orders.Status, error) {
	o, err := e.Store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	next, accepted := orders.Apply(o.Status, orders.EventCancel)
	if !accepted {
		return o.Status, fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, o.Status)
	}
	applied, err := e.Store.CancelOrder(ctx, orderID, o.Status)
	if err != nil {
		return o.Status, err
	}
	if !applied {
		return o.Status, fmt.Errorf("%w: order %s changed concurrently", ErrInvalidTransition, orderID)
	}

	e.publish(TopicOrderCanceled, EventOrderCanceled, orderID, OrderCanceledPayload{OrderID: orderID})
	return next, nil
}

func (e *Engine) publish(topic, eventType, orderID string, payload any) {
	if e.Producer == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	e.Producer.Publish(topic, PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// auditFields strips the merchant key before an outbound form lands in the
// audit trail.
func auditFields(fields map[string]string) json.RawMessage {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "merchant_key" {
			continue
		}
		cp[k] = v
	}
	b, _ := json.Marshal(cp)
	return b
}
