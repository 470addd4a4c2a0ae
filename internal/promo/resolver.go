package promo

import (
	"context"
	"sync"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
)

// Resolver runs the two-step promo resolution per cart:
//
//	Idle -> Checking (status request) -> Valid (code persisted, detail
//	fetched) / Invalid (any failure, promo state cleared).
//
// Kegagalan di langkah mana pun = fail open: cart balik ke harga penuh,
// checkout tidak pernah keblokir gara-gara kode promo.
//
// Tiap attempt dapat generation dari counter resolver-wide; Apply/Clear
// memasang generation baru, dan hasil fetch hanya ditulis balik kalau
// generation-nya masih yang terpasang di session cart itu. Respons basi
// dibuang positif, bukan kebetulan ketutup state lain. Counter-nya global
// supaya generation tidak pernah kepakai ulang walau session cart-nya
// sudah dibuang.
type Resolver struct {
	mu       sync.Mutex
	gen      uint64
	client   *Client
	store    *cart.Store
	sessions map[string]*session
}

type session struct {
	state cart.PromoState
	gen   uint64
}

func NewResolver(client *Client, store *cart.Store) *Resolver {
	return &Resolver{
		client:   client,
		store:    store,
		sessions: make(map[string]*session),
	}
}

func (r *Resolver) begin(cartID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[cartID]
	if !ok {
		s = &session{state: cart.PromoIdle}
		r.sessions[cartID] = s
	}
	r.gen++ // supersede apa pun yang masih in flight
	s.gen = r.gen
	s.state = cart.PromoChecking
	return s.gen
}

// writeIfCurrent moves the state machine and runs write only while gen is
// still the live attempt for the cart. Cek generation dan penulisan store
// harus satu critical section; kalau dipisah, Clear yang menyela di antara
// keduanya bisa ketimpa balik sama hasil basi.
func (r *Resolver) writeIfCurrent(cartID string, gen uint64, to cart.PromoState, write func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[cartID]
	if !ok || s.gen != gen {
		return false
	}
	if cart.CanTransition(s.state, to) {
		s.state = to
	}
	write()
	return true
}

// State exposes the per-cart resolution state. Cart tanpa session = Idle.
func (r *Resolver) State(cartID string) cart.PromoState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[cartID]; ok {
		return s.state
	}
	return cart.PromoIdle
}

// Apply resolves code for the cart: status check, persist the code, then
// fetch the full record. Error yang balik dipakai handler untuk kasih 422;
// state cart sudah dibereskan di sini (fail open).
func (r *Resolver) Apply(ctx context.Context, cartID, code string) error {
	gen := r.begin(cartID)

	if err := r.client.CheckStatus(ctx, code); err != nil {
		r.writeIfCurrent(cartID, gen, cart.PromoInvalid, func() {
			r.store.ClearPromo(ctx, cartID)
		})
		return err
	}

	// status ok -> code dipersist dulu, baru detail (urutan kausal)
	ok := r.writeIfCurrent(cartID, gen, cart.PromoValid, func() {
		r.store.SetPromoCode(ctx, cartID, code)
	})
	if !ok {
		return nil // disusul Apply/Clear lain; hasil dibuang diam-diam
	}

	p, err := r.client.GetPromotion(ctx, code)
	if err != nil {
		r.writeIfCurrent(cartID, gen, cart.PromoInvalid, func() {
			r.store.ClearPromo(ctx, cartID)
		})
		return err
	}
	r.writeIfCurrent(cartID, gen, cart.PromoValid, func() {
		r.store.SetPromotion(ctx, cartID, p)
	})
	return nil
}

// Clear wipes code + record dan membuang session cart-nya; fetch yang masih
// in flight otomatis basi karena attempt berikutnya selalu dapat generation
// lebih besar. Session dibuang supaya map tidak numpuk entri cart lama.
func (r *Resolver) Clear(ctx context.Context, cartID string) {
	r.mu.Lock()
	delete(r.sessions, cartID)
	r.mu.Unlock()
	r.store.ClearPromo(ctx, cartID)
}
