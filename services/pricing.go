package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"karma_server/lib"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount returns subtotal * percent / 100, unrounded
func ComputeDiscount(subtotal, percent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(percent).Div(hundred)
}

// ComputeFinal is the amount the customer pays
func ComputeFinal(subtotal, discount, delivery decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(delivery)
}

// DisplayPrice rounds to whole currency units for messages
func DisplayPrice(amount decimal.Decimal) string {
	return amount.Round(0).String()
}

const minAddressLength = 10

// ValidateCustomerName requires at least two space separated words
func ValidateCustomerName(input string) (string, error) {
	name := strings.Join(strings.Fields(input), " ")
	if len(strings.Fields(name)) < 2 {
		return "", fmt.Errorf("%w: enter first and last name", lib.ErrValidation)
	}
	return name, nil
}

// ValidatePhone accepts +7XXXXXXXXXX or 8XXXXXXXXXX style numbers
func ValidatePhone(input string) (string, error) {
	phone := strings.TrimSpace(input)
	if !strings.HasPrefix(phone, "+7") && !strings.HasPrefix(phone, "8") {
		return "", fmt.Errorf("%w: phone must start with +7 or 8", lib.ErrValidation)
	}

	digits := strings.TrimPrefix(phone, "+")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: phone must contain digits only", lib.ErrValidation)
		}
	}

	if len(phone) != 11 && len(phone) != 12 {
		return "", fmt.Errorf("%w: phone has a wrong length", lib.ErrValidation)
	}
	return phone, nil
}

// ValidateAddress requires at least ten characters
func ValidateAddress(input string) (string, error) {
	address := strings.TrimSpace(input)
	if utf8.RuneCountInString(address) < minAddressLength {
		return "", fmt.Errorf("%w: address is too short", lib.ErrValidation)
	}
	return address, nil
}
