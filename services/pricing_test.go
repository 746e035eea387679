package services

import (
	"testing"

	"karma_server/lib"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalPrice(t *testing.T) {
	subtotal := decimal.NewFromInt(2490)
	discount := ComputeDiscount(subtotal, decimal.NewFromInt(10))
	assert.Equal(t, "249", discount.String())

	final := ComputeFinal(subtotal, discount, decimal.NewFromInt(510))
	assert.Equal(t, "2751", final.String())
	assert.Equal(t, "2751", DisplayPrice(final))
}

func TestDisplayPriceRounds(t *testing.T) {
	subtotal := decimal.NewFromInt(1995)
	final := ComputeFinal(subtotal, ComputeDiscount(subtotal, decimal.NewFromInt(10)), decimal.Zero)
	assert.Equal(t, "1795.5", final.String())
	assert.Equal(t, "1796", DisplayPrice(final))
}

func TestValidatePhone(t *testing.T) {
	for _, ok := range []string{"+79991234567", "89991234567", " +79991234567 "} {
		_, err := ValidatePhone(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"12345", "+799912345", "+7999123456a", "79991234567", "+7 999 123 45 67", "+7999123456789"} {
		_, err := ValidatePhone(bad)
		assert.ErrorIs(t, err, lib.ErrValidation, bad)
	}
}

func TestValidateCustomerName(t *testing.T) {
	name, err := ValidateCustomerName("  Иван   Петров ")
	require.NoError(t, err)
	assert.Equal(t, "Иван Петров", name)

	_, err = ValidateCustomerName("Иван")
	assert.ErrorIs(t, err, lib.ErrValidation)
}

func TestValidateAddress(t *testing.T) {
	_, err := ValidateAddress("Москва, ул. Ленина 1, кв. 5, 101000")
	assert.NoError(t, err)

	// nine characters but fifteen bytes
	_, err = ValidateAddress("Москва 12")
	assert.ErrorIs(t, err, lib.ErrValidation)

	_, err = ValidateAddress("short")
	assert.ErrorIs(t, err, lib.ErrValidation)
}
