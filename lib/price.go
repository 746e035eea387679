package lib

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice reads an admin-entered price. A comma decimal separator and
// spaces between thousands are accepted. Negative values are rejected.
func ParsePrice(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: price is required", ErrValidation)
	}

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price must be a number", ErrValidation)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return price.Round(2), nil
}
