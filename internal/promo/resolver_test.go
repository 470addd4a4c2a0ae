package promo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
	"github.com/ariefcatur/go-cart-checkout.git/internal/pricing"
	"github.com/ariefcatur/go-cart-checkout.git/internal/storage"
)

func promoServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/promotions/SAVE10/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/promotions/SAVE10", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"promoCode": "SAVE10", "type": "percentage", "amount": 10,
		})
	})
	mux.HandleFunc("/promotions/BROKEN/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/promotions/BROKEN", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newResolver(t *testing.T, baseURL string) (*Resolver, *cart.Store) {
	t.Helper()
	store := cart.NewStore(storage.NewMemory("test"))
	return NewResolver(NewClient(baseURL), store), store
}

func TestApplyValidCode(t *testing.T) {
	ctx := context.Background()
	srv := promoServer(t)
	r, store := newResolver(t, srv.URL)
	store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 5000}, 1)

	if err := r.Apply(ctx, "c1", "SAVE10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.State("c1"); got != cart.PromoValid {
		t.Fatalf("expected state VALID, got %s", got)
	}

	c, _ := store.Get(ctx, "c1")
	if c.PromoCode != "SAVE10" || c.Promotion == nil {
		t.Fatalf("promotion not stored: %+v", c)
	}
	if q := pricing.QuoteCart(&c); q.TotalCents != 4500 {
		t.Fatalf("expected discounted total 4500, got %d", q.TotalCents)
	}
}

func TestApplyInvalidCodeFailsOpen(t *testing.T) {
	ctx := context.Background()
	srv := promoServer(t)
	r, store := newResolver(t, srv.URL)
	store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 5000}, 1)

	if err := r.Apply(ctx, "c1", "NOPE"); err == nil {
		t.Fatalf("expected error for invalid code")
	}
	if got := r.State("c1"); got != cart.PromoInvalid {
		t.Fatalf("expected state INVALID, got %s", got)
	}

	// cart balik ke harga penuh, tidak keblokir
	c, _ := store.Get(ctx, "c1")
	if c.PromoCode != "" || c.Promotion != nil {
		t.Fatalf("promo state not cleared: %+v", c)
	}
	if q := pricing.QuoteCart(&c); q.TotalCents != 5000 {
		t.Fatalf("expected full price 5000, got %d", q.TotalCents)
	}
}

func TestApplyDetailFetchFailureClears(t *testing.T) {
	ctx := context.Background()
	srv := promoServer(t)
	r, store := newResolver(t, srv.URL)
	store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 5000}, 1)

	if err := r.Apply(ctx, "c1", "BROKEN"); err == nil {
		t.Fatalf("expected error when detail fetch fails")
	}
	c, _ := store.Get(ctx, "c1")
	if c.PromoCode != "" || c.Promotion != nil {
		t.Fatalf("expected code and record cleared after detail failure: %+v", c)
	}
}

func TestClearRestoresFullPrice(t *testing.T) {
	ctx := context.Background()
	srv := promoServer(t)
	r, store := newResolver(t, srv.URL)
	store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 5000}, 1)

	if err := r.Apply(ctx, "c1", "SAVE10"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	r.Clear(ctx, "c1")

	if got := r.State("c1"); got != cart.PromoIdle {
		t.Fatalf("expected state IDLE, got %s", got)
	}
	c, _ := store.Get(ctx, "c1")
	if c.PromoCode != "" || c.Promotion != nil {
		t.Fatalf("promo not cleared: %+v", c)
	}
	if q := pricing.QuoteCart(&c); q.TotalCents != q.SubtotalCents {
		t.Fatalf("total should equal subtotal after clear: %+v", q)
	}
}

func TestClearDuringStatusCheckDropsResult(t *testing.T) {
	ctx := context.Background()

	statusEntered := make(chan struct{})
	releaseStatus := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/promotions/SLOW/status", func(w http.ResponseWriter, r *http.Request) {
		close(statusEntered)
		<-releaseStatus
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/promotions/SLOW", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"promoCode": "SLOW", "type": "fixed", "amount": 500,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r, store := newResolver(t, srv.URL)
	store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 5000}, 1)

	done := make(chan error, 1)
	go func() { done <- r.Apply(ctx, "c1", "SLOW") }()

	<-statusEntered
	// clear selagi status check masih jalan: kode tidak boleh dipersist
	// setelahnya, detail fetch tidak boleh jalan
	r.Clear(ctx, "c1")
	close(releaseStatus)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stale result must be dropped silently, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("apply did not finish")
	}

	c, _ := store.Get(ctx, "c1")
	if c.PromoCode != "" || c.Promotion != nil {
		t.Fatalf("stale code written back after clear: %+v", c)
	}
	if got := r.State("c1"); got != cart.PromoIdle {
		t.Fatalf("expected state IDLE after clear, got %s", got)
	}
}

func TestClearEvictsSession(t *testing.T) {
	ctx := context.Background()
	srv := promoServer(t)
	r, store := newResolver(t, srv.URL)
	store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 5000}, 1)

	if err := r.Apply(ctx, "c1", "SAVE10"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	r.Clear(ctx, "c1")

	r.mu.Lock()
	n := len(r.sessions)
	r.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected sessions evicted after clear, got %d entries", n)
	}

	// cart yang sama masih bisa apply lagi setelah evict
	if err := r.Apply(ctx, "c1", "SAVE10"); err != nil {
		t.Fatalf("re-apply after clear: %v", err)
	}
	if got := r.State("c1"); got != cart.PromoValid {
		t.Fatalf("expected state VALID, got %s", got)
	}
}

func TestStaleDetailResultDropped(t *testing.T) {
	ctx := context.Background()

	detailEntered := make(chan struct{})
	releaseDetail := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/promotions/SLOW/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/promotions/SLOW", func(w http.ResponseWriter, r *http.Request) {
		close(detailEntered)
		<-releaseDetail
		_ = json.NewEncoder(w).Encode(map[string]any{
			"promoCode": "SLOW", "type": "fixed", "amount": 500,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r, store := newResolver(t, srv.URL)
	store.AddProduct(ctx, "c1", cart.Product{ID: "1", PriceCents: 5000}, 1)

	done := make(chan error, 1)
	go func() { done <- r.Apply(ctx, "c1", "SLOW") }()

	<-detailEntered
	// user klik "hapus kode" selagi detail fetch masih jalan
	r.Clear(ctx, "c1")
	close(releaseDetail)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stale result must be dropped silently, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("apply did not finish")
	}

	c, _ := store.Get(ctx, "c1")
	if c.PromoCode != "" || c.Promotion != nil {
		t.Fatalf("stale promotion written back: %+v", c)
	}
	if got := r.State("c1"); got != cart.PromoIdle {
		t.Fatalf("expected state IDLE after clear, got %s", got)
	}
}
