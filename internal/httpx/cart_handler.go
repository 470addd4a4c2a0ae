package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/money"
	"github.com/ariefcatur/go-cart-checkout.git/internal/pricing"
	"github.com/ariefcatur/go-cart-checkout.git/internal/promo"
	"github.com/ariefcatur/go-cart-checkout.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// eventPublisher dipisah jadi interface kecil supaya handler bisa dites
// tanpa broker.
type eventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type CartHandler struct {
	Store    *cart.Store
	Resolver *promo.Resolver
	Memo     *pricing.Memo
	Producer eventPublisher
	Redis    *redis.Client
	Service  string
}

type AddItemReq struct {
	Product cart.Product `json:"product"`
	Qty     int          `json:"qty"`
}

type ApplyPromoReq struct {
	Code string `json:"code"`
}

type CheckoutReq struct {
	ExternalID      string        `json:"external_id"`
	BillingAddress  *cart.Address `json:"billing_address,omitempty"`
	ShippingAddress *cart.Address `json:"shipping_address,omitempty"`
}

type CheckoutResp struct {
	CheckoutID string `json:"checkout_id"`
	TotalCents int64  `json:"total_cents"`
	Idempotent bool   `json:"idempotent"`
}

// CartResp is the cart plus everything the UI renders: derived quantities,
// the quote, and display strings dari money util. Display dikosongkan untuk
// cart kosong (subtotal nol = belum ada harga buat ditampilkan).
type CartResp struct {
	Cart       cart.Cart       `json:"cart"`
	Lines      []LineView      `json:"lines,omitempty"`
	TotalQty   int             `json:"total_qty"`
	Quote      pricing.Quote   `json:"quote"`
	Subtotal   string          `json:"subtotal,omitempty"`
	Total      string          `json:"total,omitempty"`
	PromoState cart.PromoState `json:"promo_state"`
}

type LineView struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	LineTotal string `json:"line_total,omitempty"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/carts/{id}", h.getCart)
	r.Post("/carts/{id}/items", h.addItem)
	r.Delete("/carts/{id}/items", h.clearItems)
	r.Delete("/carts/{id}/items/{productID}", h.removeItem)
	r.Delete("/carts/{id}/items/{productID}/all", h.clearItem)
	r.Post("/carts/{id}/promo", h.applyPromo)
	r.Delete("/carts/{id}/promo", h.clearPromo)
	r.Post("/carts/{id}/checkout", h.checkout)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *CartHandler) respond(ctx context.Context, w http.ResponseWriter, cartID string, c cart.Cart, rev uint64) {
	q := h.Memo.Quote(cartID, rev, &c)
	h.cacheQuote(ctx, cartID, q)
	resp := CartResp{
		Cart:       c,
		TotalQty:   c.TotalQuantity(),
		Quote:      q,
		PromoState: h.Resolver.State(cartID),
	}
	for _, it := range c.Items {
		lv := LineView{ProductID: it.Product.ID, Qty: it.Qty}
		if d, err := money.UnitSum(it.Product.PriceCents, it.Qty); err == nil {
			lv.LineTotal = d.StringFixed(2)
		}
		resp.Lines = append(resp.Lines, lv)
	}
	if d, err := money.FormatPriceForDisplay(q.SubtotalCents); err == nil {
		resp.Subtotal = d.StringFixed(2)
	}
	if d, err := money.FormatPriceForDisplay(q.TotalCents); err == nil {
		resp.Total = d.StringFixed(2)
	}
	writeJSON(w, http.StatusOK, resp)
}

// cacheQuote writes the last quote per cart, best effort. Replay checkout
// (idempotent) baca dari sini dulu biar tidak perlu load cart lagi.
func (h *CartHandler) cacheQuote(ctx context.Context, cartID string, q pricing.Quote) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyQuote, cartID)
	b, _ := json.Marshal(q)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLQuoteCache).Err()
}

// cachedQuote tries the quote cache; miss atau Redis mati = false, caller
// hitung ulang dari store.
func (h *CartHandler) cachedQuote(ctx context.Context, cartID string) (pricing.Quote, bool) {
	var q pricing.Quote
	if h.Redis == nil {
		return q, false
	}
	key := fmt.Sprintf(redisx.KeyQuote, cartID)
	s, err := h.Redis.Get(ctx, key).Result()
	if err != nil || s == "" {
		return q, false
	}
	if err := json.Unmarshal([]byte(s), &q); err != nil {
		return q, false
	}
	return q, true
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	if cartID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}
	c, rev := h.Store.Get(r.Context(), cartID)
	h.respond(r.Context(), w, cartID, c, rev)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	var req AddItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Product.ID == "" || req.Product.PriceCents <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	c, rev := h.Store.AddProduct(r.Context(), cartID, req.Product, req.Qty)
	h.respond(r.Context(), w, cartID, c, rev)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	c, rev := h.Store.RemoveProduct(r.Context(), cartID, chi.URLParam(r, "productID"))
	h.respond(r.Context(), w, cartID, c, rev)
}

func (h *CartHandler) clearItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	c, rev := h.Store.ClearProduct(r.Context(), cartID, chi.URLParam(r, "productID"))
	h.respond(r.Context(), w, cartID, c, rev)
}

func (h *CartHandler) clearItems(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	c, rev := h.Store.ClearItems(r.Context(), cartID)
	h.respond(r.Context(), w, cartID, c, rev)
}

func (h *CartHandler) applyPromo(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	var req ApplyPromoReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing code"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Resolver.Apply(ctx, cartID, req.Code); err != nil {
		// cart sudah balik ke harga penuh; 422 cuma buat notifikasi UI
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "invalid promo code"})
		return
	}
	c, rev := h.Store.Get(ctx, cartID)
	h.respond(r.Context(), w, cartID, c, rev)
}

func (h *CartHandler) clearPromo(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	h.Resolver.Clear(r.Context(), cartID)
	c, rev := h.Store.Get(r.Context(), cartID)
	h.respond(r.Context(), w, cartID, c, rev)
}

func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ExternalID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast-path idempotency via Redis: submit ulang dengan external_id sama
	// balikin checkout_id lama, tidak publish dobel.
	idemKey := fmt.Sprintf(redisx.KeyIdemCheckoutSubmit, req.ExternalID)
	if h.Redis != nil {
		if prev, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && prev != "" {
			// coba cache quote dulu, fallback hitung ulang dari store
			q, ok := h.cachedQuote(ctx, cartID)
			if !ok {
				c, rev := h.Store.Get(ctx, cartID)
				q = h.Memo.Quote(cartID, rev, &c)
			}
			writeJSON(w, http.StatusAccepted, CheckoutResp{CheckoutID: prev, TotalCents: q.TotalCents, Idempotent: true})
			return
		}
	}

	c, rev := h.Store.Get(ctx, cartID)
	if len(c.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		return
	}
	q := h.Memo.Quote(cartID, rev, &c)

	checkoutID := uuid.NewString()
	items := make([]cart.ItemPrice, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cart.ItemPrice{
			ProductID:  it.Product.ID,
			Qty:        it.Qty,
			PriceCents: it.Product.PriceCents,
		})
	}

	ev := cart.Envelope{
		EventID:       uuid.NewString(),
		EventType:     cart.EventCheckoutSubmitted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: cartID,
	}
	ev.Payload = kafkax.MustMarshal(cart.CheckoutSubmittedPayload{
		CheckoutID:      checkoutID,
		CartID:          cartID,
		ExternalID:      req.ExternalID,
		Items:           items,
		PromoCode:       c.PromoCode,
		SubtotalCents:   q.SubtotalCents,
		TotalCents:      q.TotalCents,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
	})
	h.Producer.Publish(cart.PartitionKey(cartID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(cart.EventCheckoutSubmitted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	if h.Redis != nil {
		_ = h.Redis.Set(ctx, idemKey, checkoutID, redisx.TTLIdempotency).Err()
	}
	h.cacheQuote(ctx, cartID, q)

	writeJSON(w, http.StatusAccepted, CheckoutResp{CheckoutID: checkoutID, TotalCents: q.TotalCents})
}
