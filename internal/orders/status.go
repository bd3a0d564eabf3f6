package orders

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Event is what the reconciliation engine derived from a verified callback or
// from an explicit retry/cancel request.
type Event string

const (
	EventPaymentCompleted Event = "PAYMENT_COMPLETED"
	EventPaymentFailed    Event = "PAYMENT_FAILED"
	EventRetry            Event = "RETRY"
	EventCancel           Event = "CANCEL"
)

// paid and canceled are terminal: no entry here, no way out.
var validNext = map[Status]map[Event]Status{
	StatusPending: {
		EventPaymentCompleted: StatusPaid,
		EventPaymentFailed:    StatusFailed,
		EventCancel:           StatusCanceled,
	},
	StatusFailed: {
		EventRetry:  StatusPending,
		EventCancel: StatusCanceled,
	},
}

// Apply decides the next status for an event. accepted=false is not an
// error: it tells the caller to record the attempt for audit and leave the
// order alone. No I/O, no clock.
func Apply(current Status, ev Event) (next Status, accepted bool) {
	if n, ok := validNext[current][ev]; ok {
		return n, true
	}
	return current, false
}
