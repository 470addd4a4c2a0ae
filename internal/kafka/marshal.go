package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-cart-checkout.git/internal/cart"
)

// MustMarshal encodes payload yang kita bangun sendiri dari struct; gagal
// di sini berarti bug di tipe, bukan input jelek.
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// UnmarshalEnvelope decodes an event envelope off the wire.
func UnmarshalEnvelope(b []byte, env *cart.Envelope) error {
	if err := json.Unmarshal(b, env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	return nil
}

// UnwrapPayload decodes the typed payload inside an envelope.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
