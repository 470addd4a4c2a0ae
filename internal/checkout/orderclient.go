package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
)

// OrderClient calls the external order-creation endpoint. Order/payment
// semantics sepenuhnya punya sistem sebelah; kita cuma kirim sekali, tanpa
// retry.
type OrderClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewOrderClient(baseURL string) *OrderClient {
	return &OrderClient{BaseURL: baseURL, HTTP: http.DefaultClient}
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type CreateOrderReq struct {
	ExternalID      string        `json:"external_id"`
	Items           []OrderItem   `json:"items"`
	PromoCode       string        `json:"promo_code,omitempty"`
	TotalCents      int64         `json:"total_cents"`
	BillingAddress  *cart.Address `json:"billing_address,omitempty"`
	ShippingAddress *cart.Address `json:"shipping_address,omitempty"`
}

type CreateOrderResp struct {
	OrderID string `json:"order_id"`
}

func (c *OrderClient) CreateOrder(ctx context.Context, req CreateOrderReq) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("create order: status %d", resp.StatusCode)
	}
	var out CreateOrderResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	return out.OrderID, nil
}
