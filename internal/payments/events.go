package payments

import (
	"encoding/json"
	"time"
)

const (
	EventPaymentInitiated = "PaymentInitiated"
	EventPaymentCompleted = "PaymentCompleted"
	EventPaymentFailed    = "PaymentFailed"
	EventPaymentRetried   = "PaymentRetried"
	EventOrderCanceled    = "OrderCanceled"
)

const (
	TopicPaymentInitiated = "payment.initiated"
	TopicPaymentCompleted = "payment.completed"
	TopicPaymentFailed    = "payment.failed"
	TopicPaymentRetried   = "payment.retried"
	TopicOrderCanceled    = "order.canceled"
)

// Topics lists everything a downstream consumer subscribes to.
func Topics() []string {
	return []string{
		TopicPaymentInitiated,
		TopicPaymentCompleted,
		TopicPaymentFailed,
		TopicPaymentRetried,
		TopicOrderCanceled,
	}
}

// Partition key = order_id, so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g. "payments-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload types per event ----

type PaymentInitiatedPayload struct {
	OrderID  string `json:"order_id"`
	Endpoint string `json:"endpoint"`
	Amount   string `json:"amount"`
}

type PaymentCompletedPayload struct {
	OrderID           string `json:"order_id"`
	ProviderPaymentID string `json:"provider_payment_id"`
	Amount            string `json:"amount,omitempty"`
}

type PaymentFailedPayload struct {
	OrderID           string `json:"order_id"`
	GatewayStatus     string `json:"gateway_status,omitempty"`
	SignatureVerified bool   `json:"signature_verified"`
}

type PaymentRetriedPayload struct {
	OrderID string `json:"order_id"`
}

type OrderCanceledPayload struct {
	OrderID string `json:"order_id"`
}
