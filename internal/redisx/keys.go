package redisx

import "time"

const (
	// Idempotency submit checkout: idem:checkout:submit:{external_id} -> checkout_id
	KeyIdemCheckoutSubmit = "idem:checkout:submit:%s"

	// Cache quote terakhir per cart: quote:{cart_id} -> {"subtotal_cents":...,"total_cents":...}
	KeyQuote = "quote:%s"

	// Dedup event processing di worker: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLQuoteCache  = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
