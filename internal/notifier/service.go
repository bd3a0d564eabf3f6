package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-ticket-payments.git/internal/kafka"
	"github.com/ariefcatur/go-ticket-payments.git/internal/orders"
	"github.com/ariefcatur/go-ticket-payments.git/internal/payments"
	"github.com/ariefcatur/go-ticket-payments.git/internal/redisx"
)

// Service consumes payment lifecycle events: it keeps the order-status cache
// warm and logs customer notifications. Sending actual mail/SMS sits behind
// this log line.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env payments.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup via redis on event id; gateway retries fan out as duplicate events
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	switch env.EventType {
	case payments.EventPaymentCompleted:
		p, err := kafkax.UnwrapPayload[payments.PaymentCompletedPayload](env.Payload)
		if err != nil {
			return err
		}
		redisx.CacheOrderStatus(ctx, s.Redis, p.OrderID, string(orders.StatusPaid))
		log.Printf("notify: order %s paid (gateway ref %s)", p.OrderID, p.ProviderPaymentID)

	case payments.EventPaymentFailed:
		p, err := kafkax.UnwrapPayload[payments.PaymentFailedPayload](env.Payload)
		if err != nil {
			return err
		}
		redisx.CacheOrderStatus(ctx, s.Redis, p.OrderID, string(orders.StatusFailed))
		log.Printf("notify: order %s payment failed (verified=%t gateway=%s)",
			p.OrderID, p.SignatureVerified, p.GatewayStatus)

	case payments.EventPaymentRetried:
		p, err := kafkax.UnwrapPayload[payments.PaymentRetriedPayload](env.Payload)
		if err != nil {
			return err
		}
		redisx.CacheOrderStatus(ctx, s.Redis, p.OrderID, string(orders.StatusPending))
		log.Printf("notify: order %s payment retried", p.OrderID)

	case payments.EventOrderCanceled:
		p, err := kafkax.UnwrapPayload[payments.OrderCanceledPayload](env.Payload)
		if err != nil {
			return err
		}
		redisx.CacheOrderStatus(ctx, s.Redis, p.OrderID, string(orders.StatusCanceled))
		log.Printf("notify: order %s canceled", p.OrderID)

	case payments.EventPaymentInitiated:
		// nothing to notify yet; the customer is mid-checkout
	}
	return nil
}
