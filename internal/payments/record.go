package payments

import (
	"encoding/json"
	"time"
)

type RecordStatus string

const (
	RecordInitiated RecordStatus = "initiated"
	RecordPending   RecordStatus = "pending"
	RecordCompleted RecordStatus = "completed"
	RecordFailed    RecordStatus = "failed"
	RecordCanceled  RecordStatus = "canceled"
	RecordRetry     RecordStatus = "retry"
)

// Record is the audit ledger entry for one payment attempt. Callback
// deliveries for the same (order, gateway payment id) pair update the one
// current record in place instead of piling up duplicates; the raw payload
// of the latest delivery is kept verbatim for forensic replay.
type Record struct {
	ID                string          `json:"id"`
	OrderID           string          `json:"order_id"`
	ProviderPaymentID string          `json:"provider_payment_id,omitempty"`
	Status            RecordStatus    `json:"status"`
	SignatureVerified bool            `json:"signature_verified"`
	RawPayload        json.RawMessage `json:"raw_payload"`
	RecordedAt        time.Time       `json:"recorded_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
