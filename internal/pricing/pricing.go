package pricing

import (
	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
	"github.com/shopspring/decimal"
)

// Quote is the priced view of a cart. Pure derivation dari (items, promotion),
// tidak pernah disimpan.
type Quote struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
}

var hundred = decimal.NewFromInt(100)

// Subtotal = Σ price × qty, integer cents.
func Subtotal(items []cart.LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Product.PriceCents * int64(it.Qty)
	}
	return total
}

// Discount returns the cents knocked off the subtotal by p, clamped to
// [0, subtotal]. Percentage dihitung via decimal lalu dibulatkan ke cent
// utuh, jadi total selalu integer cents.
func Discount(subtotal int64, p *cart.Promotion) int64 {
	if p == nil || subtotal <= 0 {
		return 0
	}
	var d int64
	switch p.Type {
	case cart.DiscountPercentage:
		d = decimal.NewFromInt(subtotal).Mul(p.Amount).Div(hundred).Round(0).IntPart()
	case cart.DiscountFixed:
		d = p.Amount.Round(0).IntPart()
	default:
		return 0
	}
	if d < 0 {
		return 0
	}
	if d > subtotal {
		return subtotal // floor total di nol, jangan pernah negatif
	}
	return d
}

// Total = subtotal - discount, never below zero.
func Total(subtotal int64, p *cart.Promotion) int64 {
	t := subtotal - Discount(subtotal, p)
	if t < 0 {
		return 0
	}
	return t
}

func QuoteCart(c *cart.Cart) Quote {
	sub := Subtotal(c.Items)
	disc := Discount(sub, c.Promotion)
	return Quote{SubtotalCents: sub, DiscountCents: disc, TotalCents: sub - disc}
}
