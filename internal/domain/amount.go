package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatAmount is the only amount rendering used for signing and
// transmission. The gateway echoes it back verbatim, so any other format
// breaks response verification.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseAmount accepts positive amounts with at most two fraction digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	if !d.Round(2).Equal(d) {
		return decimal.Zero, fmt.Errorf("%w: more than two fraction digits", ErrInvalidAmount)
	}
	return d.Round(2), nil
}
