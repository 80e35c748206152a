// Package model defines the core domain types for GreenStash.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount parsing errors.
var (
	ErrEmptyAmount       = errors.New("amount cannot be empty")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
)

// ParseAmount parses user-entered money. A decimal comma is accepted in place of
// a dot and the result is rounded to cents.
func ParseAmount(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	s = strings.ReplaceAll(s, ",", ".")

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}

	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}

	return amount, nil
}

// FormatCurrency renders an amount with two decimals, thousands separators and
// an optional currency symbol prefix.
func FormatCurrency(amount decimal.Decimal, symbol string) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}

	return sign + symbol + b.String() + "." + fracPart
}
