package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatPriceForDisplay(t *testing.T) {
	t.Run("cents to currency units", func(t *testing.T) {
		d, err := FormatPriceForDisplay(1050)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.StringFixed(2) != "10.50" {
			t.Fatalf("expected 10.50, got %s", d.StringFixed(2))
		}
	})

	t.Run("zero -> no price", func(t *testing.T) {
		_, err := FormatPriceForDisplay(0)
		if !errors.Is(err, ErrNoPrice) {
			t.Fatalf("expected ErrNoPrice, got %v", err)
		}
	})

	t.Run("negative -> no price", func(t *testing.T) {
		_, err := FormatPriceForDisplay(-100)
		if !errors.Is(err, ErrNoPrice) {
			t.Fatalf("expected ErrNoPrice, got %v", err)
		}
	})
}

func TestToCents(t *testing.T) {
	t.Run("truncates, never rounds", func(t *testing.T) {
		c, err := ToCents(decimal.RequireFromString("10.999"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c != 1099 {
			t.Fatalf("expected 1099, got %d", c)
		}
	})

	t.Run("zero -> no price", func(t *testing.T) {
		if _, err := ToCents(decimal.Zero); !errors.Is(err, ErrNoPrice) {
			t.Fatalf("expected ErrNoPrice, got %v", err)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	// ToCents(FormatPriceForDisplay(x)) harus balik ke x untuk semua cent utuh
	for _, x := range []int64{1, 99, 100, 1050, 123456, 999999999} {
		d, err := FormatPriceForDisplay(x)
		if err != nil {
			t.Fatalf("format %d: %v", x, err)
		}
		c, err := ToCents(d)
		if err != nil {
			t.Fatalf("to cents %s: %v", d, err)
		}
		if c != x {
			t.Fatalf("round trip %d -> %s -> %d", x, d, c)
		}
	}
}

func TestUnitSum(t *testing.T) {
	t.Run("price times qty, in currency units", func(t *testing.T) {
		d, err := UnitSum(1000, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.StringFixed(2) != "30.00" {
			t.Fatalf("expected 30.00, got %s", d.StringFixed(2))
		}
	})

	t.Run("zero qty -> error", func(t *testing.T) {
		if _, err := UnitSum(1000, 0); !errors.Is(err, ErrBadQty) {
			t.Fatalf("expected ErrBadQty, got %v", err)
		}
	})

	t.Run("zero price -> error", func(t *testing.T) {
		if _, err := UnitSum(0, 2); !errors.Is(err, ErrNoPrice) {
			t.Fatalf("expected ErrNoPrice, got %v", err)
		}
	})
}
