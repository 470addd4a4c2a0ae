package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ariefcatur/go-cart-checkout.git/internal/storage"
)

// Store is the persisted cart store: every mutation is load -> apply -> save
// against the storage adapter. Mutasi diserialisasi pakai mutex; di source
// aslinya ini gratis karena event loop single-threaded, di sini harus
// eksplisit.
//
// Storage failures never reach the caller: Load yang gagal jatuh ke cart
// kosong, Save yang gagal sudah di-log oleh adapter. Fail-open.
type Store struct {
	mu sync.Mutex // serialisasi load -> apply -> save
	st storage.Adapter

	// revs punya mutex sendiri: notifikasi storage datang sinkron dari
	// dalam Save, jadi bump tidak boleh rebutan mutex yang sama dengan
	// mutate.
	revMu sync.Mutex
	revs  map[string]uint64
}

func NewStore(st storage.Adapter) *Store {
	s := &Store{st: st, revs: make(map[string]uint64)}
	// perubahan dari instance lain (atau dari save kita sendiri) menaikkan
	// revision, supaya quote yang di-memo berdasarkan revision dihitung ulang
	st.Subscribe(func(key string) {
		if id, ok := cartIDFromKey(key); ok {
			s.bump(id)
		}
	})
	return s
}

// cartKeyPrefix is derived from the key format so the notifier parse can't
// drift from cartKey.
var cartKeyPrefix = strings.TrimSuffix(storage.KeyCart, "%s")

func cartKey(id string) string { return fmt.Sprintf(storage.KeyCart, id) }

func cartIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, cartKeyPrefix) {
		return "", false
	}
	return key[len(cartKeyPrefix):], true
}

func (s *Store) bump(id string) {
	s.revMu.Lock()
	s.revs[id]++
	s.revMu.Unlock()
}

// Revision is bumped on every change to the cart, local or remote. Quote
// memoization keys off it.
func (s *Store) Revision(id string) uint64 {
	s.revMu.Lock()
	defer s.revMu.Unlock()
	return s.revs[id]
}

// Get loads the cart snapshot, falling back to an empty cart.
func (s *Store) Get(ctx context.Context, id string) (Cart, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c Cart
	s.st.Load(ctx, cartKey(id), &c)
	return c, s.Revision(id)
}

func (s *Store) mutate(ctx context.Context, id string, fn func(*Cart)) (Cart, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c Cart
	s.st.Load(ctx, cartKey(id), &c)
	fn(&c)
	// bump eksplisit: Save yang gagal tidak kirim notifikasi, padahal view
	// in-memory yang kita balikin sudah berubah
	s.bump(id)
	s.st.Save(ctx, cartKey(id), &c)
	return c, s.Revision(id)
}

func (s *Store) AddProduct(ctx context.Context, id string, p Product, qty int) (Cart, uint64) {
	return s.mutate(ctx, id, func(c *Cart) { c.AddProduct(p, qty) })
}

func (s *Store) RemoveProduct(ctx context.Context, id, productID string) (Cart, uint64) {
	return s.mutate(ctx, id, func(c *Cart) { c.RemoveProduct(productID) })
}

func (s *Store) ClearProduct(ctx context.Context, id, productID string) (Cart, uint64) {
	return s.mutate(ctx, id, func(c *Cart) { c.ClearProduct(productID) })
}

func (s *Store) ClearItems(ctx context.Context, id string) (Cart, uint64) {
	return s.mutate(ctx, id, func(c *Cart) { c.ClearItems() })
}

// ResetAll empties items and promo both; dipanggil worker setelah order
// sukses dibuat.
func (s *Store) ResetAll(ctx context.Context, id string) (Cart, uint64) {
	return s.mutate(ctx, id, func(c *Cart) { c.ResetAll() })
}

// SetPromoCode persists the code alone; detail promotion menyusul setelah
// fetch kedua sukses (urutan kausal status -> detail).
func (s *Store) SetPromoCode(ctx context.Context, id, code string) (Cart, uint64) {
	return s.mutate(ctx, id, func(c *Cart) {
		c.PromoCode = code
		c.Promotion = nil
	})
}

func (s *Store) SetPromotion(ctx context.Context, id string, p *Promotion) (Cart, uint64) {
	return s.mutate(ctx, id, func(c *Cart) {
		if p != nil {
			c.PromoCode = p.PromoCode
		}
		c.Promotion = p
	})
}

func (s *Store) ClearPromo(ctx context.Context, id string) (Cart, uint64) {
	return s.mutate(ctx, id, func(c *Cart) {
		c.PromoCode = ""
		c.Promotion = nil
	})
}
