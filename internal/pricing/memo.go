package pricing

import (
	"sync"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
)

// Memo caches the last quote per cart keyed by store revision; dihitung
// ulang on demand begitu cart atau promo berubah (revision naik).
type Memo struct {
	mu   sync.Mutex
	last map[string]memoEntry
}

type memoEntry struct {
	rev uint64
	q   Quote
}

func NewMemo() *Memo {
	return &Memo{last: make(map[string]memoEntry)}
}

func (m *Memo) Quote(cartID string, rev uint64, c *cart.Cart) Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.last[cartID]; ok && e.rev == rev {
		return e.q
	}
	q := QuoteCart(c)
	m.last[cartID] = memoEntry{rev: rev, q: q}
	return q
}

// Forget drops the cached quote, e.g. saat cart di-reset habis checkout.
func (m *Memo) Forget(cartID string) {
	m.mu.Lock()
	delete(m.last, cartID)
	m.mu.Unlock()
}
