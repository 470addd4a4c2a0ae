package promo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
)

var ErrInvalidCode = errors.New("invalid promo code")

// Client talks to the remote promotion service. Dua endpoint, dua-duanya
// fire-once tanpa retry: status check dulu, baru detail.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: http.DefaultClient}
}

// CheckStatus validates the code (validity/expiry). Body responsenya tidak
// dipakai, yang penting cuma sukses/gagal.
func (c *Client) CheckStatus(ctx context.Context, code string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/promotions/%s/status", c.BaseURL, code), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("promo status check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("promo status %d: %w", resp.StatusCode, ErrInvalidCode)
	}
	return nil
}

// GetPromotion fetches the full promotion record {promoCode, type, amount}.
func (c *Client) GetPromotion(ctx context.Context, code string) (*cart.Promotion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/promotions/%s", c.BaseURL, code), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("promo detail fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("promo detail %d: %w", resp.StatusCode, ErrInvalidCode)
	}
	var p cart.Promotion
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode promotion: %w", err)
	}
	if p.Type != cart.DiscountPercentage && p.Type != cart.DiscountFixed {
		return nil, fmt.Errorf("promo type %q: %w", p.Type, ErrInvalidCode)
	}
	return &p, nil
}
