package cart

import (
	"encoding/json"
	"time"
)

const (
	EventCheckoutSubmitted = "CheckoutSubmitted"
	EventOrderPlaced       = "OrderPlaced"
	EventOrderRejected     = "OrderRejected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "cart-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya cart_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

// ---- Payload tipe per event ----

type ItemPrice struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type Address struct {
	Name    string `json:"name,omitempty"`
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

type CheckoutSubmittedPayload struct {
	CheckoutID      string      `json:"checkout_id"`
	CartID          string      `json:"cart_id"`
	ExternalID      string      `json:"external_id"`
	Items           []ItemPrice `json:"items"`
	PromoCode       string      `json:"promo_code,omitempty"`
	SubtotalCents   int64       `json:"subtotal_cents"`
	TotalCents      int64       `json:"total_cents"`
	BillingAddress  *Address    `json:"billing_address,omitempty"`
	ShippingAddress *Address    `json:"shipping_address,omitempty"`
}

type OrderPlacedPayload struct {
	CheckoutID string `json:"checkout_id"`
	CartID     string `json:"cart_id"`
	OrderID    string `json:"order_id"`
	TotalCents int64  `json:"total_cents"`
}

type OrderRejectedPayload struct {
	CheckoutID string `json:"checkout_id"`
	CartID     string `json:"cart_id"`
	Reason     string `json:"reason"` // e.g., ORDER_ENDPOINT_FAILED
}
