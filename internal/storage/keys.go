package storage

import "time"

const (
	// Cart snapshot per cart id: cart:{cart_id} -> JSON Cart
	KeyCart = "cart:%s"
)

var (
	// localStorage tidak punya TTL; di redis kita kasih 30 hari supaya cart
	// yang ditinggal tidak numpuk selamanya.
	TTLCart = 30 * 24 * time.Hour
)
