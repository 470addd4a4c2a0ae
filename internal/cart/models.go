package cart

import "github.com/shopspring/decimal"

// Product adalah snapshot read-only dari catalog API. Cart cuma pegang copy,
// bukan source of truth harga.
type Product struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	ImageURL   string `json:"image_url,omitempty"`
}

type LineItem struct {
	Product Product `json:"product"`
	Qty     int     `json:"qty"`
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Promotion is a read-only snapshot fetched from the promotion service,
// valid only for the current session. Amount is percentage points for
// percentage type, cents for fixed type.
type Promotion struct {
	PromoCode string          `json:"promoCode"`
	Type      DiscountType    `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
}

// Cart holds ordered line items (insertion order = order added) plus the
// currently applied promo, if any. Invariant: at most one LineItem per
// product id.
type Cart struct {
	Items     []LineItem `json:"items"`
	PromoCode string     `json:"promo_code,omitempty"`
	Promotion *Promotion `json:"promotion,omitempty"`
}

// AddProduct merges into an existing line (qty bertambah) atau append baru.
// Qty dipercaya dari caller; qty <= 0 dinormalisasi jadi 1.
func (c *Cart) AddProduct(p Product, qty int) {
	if qty <= 0 {
		qty = 1
	}
	for i := range c.Items {
		if c.Items[i].Product.ID == p.ID {
			c.Items[i].Qty += qty
			return
		}
	}
	c.Items = append(c.Items, LineItem{Product: p, Qty: qty})
}

// RemoveProduct decrements by one; at qty==1 the line is deleted entirely.
// No-op kalau id tidak ada.
func (c *Cart) RemoveProduct(id string) {
	for i := range c.Items {
		if c.Items[i].Product.ID != id {
			continue
		}
		if c.Items[i].Qty > 1 {
			c.Items[i].Qty--
			return
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return
	}
}

// ClearProduct deletes the whole line regardless of quantity.
func (c *Cart) ClearProduct(id string) {
	for i := range c.Items {
		if c.Items[i].Product.ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// ClearItems empties the item list; promo tetap.
func (c *Cart) ClearItems() { c.Items = nil }

// ResetAll clears items AND the applied promo. Dipakai setelah checkout
// sukses.
func (c *Cart) ResetAll() {
	c.Items = nil
	c.PromoCode = ""
	c.Promotion = nil
}

// ---- derived selectors, selalu dihitung ulang dari state ----

func (c *Cart) Products() []Product {
	out := make([]Product, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.Product)
	}
	return out
}

func (c *Cart) TotalQuantity() int {
	n := 0
	for _, it := range c.Items {
		n += it.Qty
	}
	return n
}

func (c *Cart) SubtotalCents() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.Product.PriceCents * int64(it.Qty)
	}
	return total
}
