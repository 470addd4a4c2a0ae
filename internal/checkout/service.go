package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// DedupFunc returns true kalau event sudah pernah diproses (dan sekalian
// menandai event sekarang sebagai sudah diproses).
type DedupFunc func(ctx context.Context, eventID string) bool

// RedisDedup is the production dedup, keyed per service + event id.
func RedisDedup(rdb *redis.Client, service string) DedupFunc {
	return func(ctx context.Context, eventID string) bool {
		key := fmt.Sprintf(redisx.KeyDedup, service, eventID)
		exists, _ := redisx.Exists(ctx, rdb, key)
		if exists {
			return true
		}
		_ = rdb.Set(ctx, key, "1", redisx.TTLDedup).Err()
		return false
	}
}

// Service forwards submitted checkouts to the external order endpoint, satu
// kali per event. Sukses -> cart di-reset + OrderPlaced; gagal -> cart
// dibiarkan + OrderRejected (fail open, user bisa submit lagi).
type Service struct {
	Store          *cart.Store
	Orders         *OrderClient
	ProducerOK     publisher // publish cart.order.placed
	ProducerReject publisher // publish cart.order.rejected
	Dedup          DedupFunc
	ServiceName    string
}

// HandleCheckoutSubmitted dipasang sebagai handler consumer.
func (s *Service) HandleCheckoutSubmitted(ctx context.Context, m kafkago.Message) error {
	var env cart.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != cart.EventCheckoutSubmitted {
		return nil
	} // ignore

	if s.Dedup != nil && s.Dedup(ctx, env.EventID) {
		return nil
	}

	p, err := kafkax.UnwrapPayload[cart.CheckoutSubmittedPayload](env.Payload)
	if err != nil {
		return err
	}

	items := make([]OrderItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, OrderItem{ProductID: it.ProductID, Qty: it.Qty})
	}

	orderID, err := s.Orders.CreateOrder(ctx, CreateOrderReq{
		ExternalID:      p.ExternalID,
		Items:           items,
		PromoCode:       p.PromoCode,
		TotalCents:      p.TotalCents,
		BillingAddress:  p.BillingAddress,
		ShippingAddress: p.ShippingAddress,
	})
	if err != nil {
		// tanpa retry: commit offset, publish rejected, cart tetap utuh
		log.Printf("checkout %s: order rejected: %v", p.CheckoutID, err)
		s.publishRejected(p, "ORDER_ENDPOINT_FAILED", env.TraceID)
		return nil
	}

	// order jadi -> cart selesai hidupnya
	s.Store.ResetAll(ctx, p.CartID)
	s.publishPlaced(p, orderID, env.TraceID)
	return nil
}

func (s *Service) publishPlaced(p cart.CheckoutSubmittedPayload, orderID, trace string) {
	ev := cart.Envelope{
		EventID:       uuid.NewString(),
		EventType:     cart.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: p.CartID,
		Payload: kafkax.MustMarshal(cart.OrderPlacedPayload{
			CheckoutID: p.CheckoutID,
			CartID:     p.CartID,
			OrderID:    orderID,
			TotalCents: p.TotalCents,
		}),
	}
	s.ProducerOK.Publish(cart.PartitionKey(p.CartID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(cart.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishRejected(p cart.CheckoutSubmittedPayload, reason, trace string) {
	ev := cart.Envelope{
		EventID:       uuid.NewString(),
		EventType:     cart.EventOrderRejected,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: p.CartID,
		Payload: kafkax.MustMarshal(cart.OrderRejectedPayload{
			CheckoutID: p.CheckoutID,
			CartID:     p.CartID,
			Reason:     reason,
		}),
	}
	s.ProducerReject.Publish(cart.PartitionKey(p.CartID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(cart.EventOrderRejected)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
