package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/storage"
	kafkago "github.com/segmentio/kafka-go"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (p *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	p.mu.Lock()
	p.msgs = append(p.msgs, value)
	p.mu.Unlock()
}

func (p *capturePublisher) envelopes(t *testing.T) []cart.Envelope {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]cart.Envelope, 0, len(p.msgs))
	for _, b := range p.msgs {
		var env cart.Envelope
		if err := json.Unmarshal(b, &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		out = append(out, env)
	}
	return out
}

func mapDedup() DedupFunc {
	seen := map[string]bool{}
	var mu sync.Mutex
	return func(_ context.Context, id string) bool {
		mu.Lock()
		defer mu.Unlock()
		if seen[id] {
			return true
		}
		seen[id] = true
		return false
	}
}

func submittedMessage(t *testing.T, eventID string) kafkago.Message {
	t.Helper()
	env := cart.Envelope{
		EventID:       eventID,
		EventType:     cart.EventCheckoutSubmitted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "cart-api-test",
		CorrelationID: "c1",
		Payload: kafkax.MustMarshal(cart.CheckoutSubmittedPayload{
			CheckoutID:    "chk-1",
			CartID:        "c1",
			ExternalID:    "x1",
			Items:         []cart.ItemPrice{{ProductID: "1", Qty: 2, PriceCents: 1000}},
			PromoCode:     "SAVE10",
			SubtotalCents: 2000,
			TotalCents:    1800,
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func newService(t *testing.T, orderURL string) (*Service, *cart.Store, *capturePublisher, *capturePublisher) {
	t.Helper()
	store := cart.NewStore(storage.NewMemory("test"))
	pOK := &capturePublisher{}
	pRJ := &capturePublisher{}
	svc := &Service{
		Store:          store,
		Orders:         NewOrderClient(orderURL),
		ProducerOK:     pOK,
		ProducerReject: pRJ,
		Dedup:          mapDedup(),
		ServiceName:    "checkout-test",
	}
	return svc, store, pOK, pRJ
}

func TestHandleCheckoutSubmitted(t *testing.T) {
	ctx := context.Background()

	t.Run("order created -> cart reset + OrderPlaced", func(t *testing.T) {
		var gotReq CreateOrderReq
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"order_id": "ord-1"})
		}))
		t.Cleanup(srv.Close)

		svc, store, pOK, pRJ := newService(t, srv.URL)
		store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 1000}, 2)
		store.SetPromoCode(ctx, "c1", "SAVE10")

		if err := svc.HandleCheckoutSubmitted(ctx, submittedMessage(t, "ev-1")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotReq.ExternalID != "x1" || gotReq.TotalCents != 1800 || gotReq.PromoCode != "SAVE10" {
			t.Fatalf("order request wrong: %+v", gotReq)
		}

		c, _ := store.Get(ctx, "c1")
		if len(c.Items) != 0 || c.PromoCode != "" {
			t.Fatalf("cart not reset after placement: %+v", c)
		}

		envs := pOK.envelopes(t)
		if len(envs) != 1 || envs[0].EventType != cart.EventOrderPlaced {
			t.Fatalf("expected OrderPlaced, got %+v", envs)
		}
		var p cart.OrderPlacedPayload
		if err := json.Unmarshal(envs[0].Payload, &p); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if p.OrderID != "ord-1" || p.TotalCents != 1800 {
			t.Fatalf("unexpected payload: %+v", p)
		}
		if len(pRJ.envelopes(t)) != 0 {
			t.Fatalf("no rejection expected")
		}
	})

	t.Run("order endpoint failure -> cart intact + OrderRejected, no retry", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		svc, store, pOK, pRJ := newService(t, srv.URL)
		store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 1000}, 2)

		// nil = commit offset, tidak ada redelivery/retry
		if err := svc.HandleCheckoutSubmitted(ctx, submittedMessage(t, "ev-2")); err != nil {
			t.Fatalf("failure must not bubble: %v", err)
		}

		c, _ := store.Get(ctx, "c1")
		if len(c.Items) == 0 {
			t.Fatalf("cart must stay intact on rejection")
		}
		if len(pOK.envelopes(t)) != 0 {
			t.Fatalf("no placement expected")
		}
		envs := pRJ.envelopes(t)
		if len(envs) != 1 || envs[0].EventType != cart.EventOrderRejected {
			t.Fatalf("expected OrderRejected, got %+v", envs)
		}
	})

	t.Run("duplicate event deduped", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"order_id": "ord-2"})
		}))
		t.Cleanup(srv.Close)

		svc, store, pOK, _ := newService(t, srv.URL)
		store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 1000}, 1)

		m := submittedMessage(t, "ev-3")
		if err := svc.HandleCheckoutSubmitted(ctx, m); err != nil {
			t.Fatalf("first delivery: %v", err)
		}
		if err := svc.HandleCheckoutSubmitted(ctx, m); err != nil {
			t.Fatalf("second delivery: %v", err)
		}
		if calls != 1 {
			t.Fatalf("order endpoint called %d times, want 1", calls)
		}
		if len(pOK.envelopes(t)) != 1 {
			t.Fatalf("OrderPlaced published more than once")
		}
	})

	t.Run("foreign event type ignored", func(t *testing.T) {
		svc, _, pOK, pRJ := newService(t, "http://unused")
		env := cart.Envelope{EventID: "ev-4", EventType: "SomethingElse", EventVersion: 1}
		if err := svc.HandleCheckoutSubmitted(ctx, kafkago.Message{Value: kafkax.MustMarshal(env)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pOK.envelopes(t))+len(pRJ.envelopes(t)) != 0 {
			t.Fatalf("nothing should be published")
		}
	})
}
