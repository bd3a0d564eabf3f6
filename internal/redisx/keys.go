package redisx

import "time"

const (
	// Idempotent order create: idem:order:create:{external_ref} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Order status cache: order_status:{order_id} -> {"order_id":..,"status":..}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
