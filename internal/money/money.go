package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoPrice: harga 0 atau negatif dianggap "tidak ada harga" dari katalog.
	// Lebih baik gagal keras di sini daripada diam-diam salah harga.
	ErrNoPrice = errors.New("no price specified")

	ErrBadQty = errors.New("invalid quantity")
)

var centsPerUnit = decimal.NewFromInt(100)

// FormatPriceForDisplay converts integer cents to decimal currency units.
// Zero is rejected on purpose: a zero price in our catalog means the field
// was never filled in, not a free product.
func FormatPriceForDisplay(cents int64) (decimal.Decimal, error) {
	if cents <= 0 {
		return decimal.Decimal{}, fmt.Errorf("format price %d: %w", cents, ErrNoPrice)
	}
	return decimal.NewFromInt(cents).Div(centsPerUnit), nil
}

// ToCents converts a decimal amount to integer cents by truncation, never
// rounding. Truncate supaya tidak pernah menagih lebih dari angka yang tampil.
func ToCents(amount decimal.Decimal) (int64, error) {
	if amount.Sign() <= 0 {
		return 0, fmt.Errorf("to cents %s: %w", amount, ErrNoPrice)
	}
	return amount.Mul(centsPerUnit).Truncate(0).IntPart(), nil
}

// UnitSum returns (unitCents*qty)/100 rounded to 2 decimals.
func UnitSum(unitCents int64, qty int) (decimal.Decimal, error) {
	if unitCents <= 0 {
		return decimal.Decimal{}, fmt.Errorf("unit sum price %d: %w", unitCents, ErrNoPrice)
	}
	if qty < 1 {
		return decimal.Decimal{}, fmt.Errorf("unit sum qty %d: %w", qty, ErrBadQty)
	}
	total := decimal.NewFromInt(unitCents).Mul(decimal.NewFromInt(int64(qty)))
	return total.Div(centsPerUnit).Round(2), nil
}
