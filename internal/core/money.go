// Package core holds the domain types shared across the tracker: expenses,
// drafts, preferences and decimal money.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a positive monetary value with two fractional digits, carried as
// a decimal so repeated conversions never accumulate floating-point drift.
type Money struct {
	Value decimal.Decimal
}

// ParseMoney converts a decimal string to Money with half-up rounding on the
// third fractional digit. It accepts both dot (12.34) and comma (12,34)
// decimal separators. Returns an error for invalid formats, negative values,
// or zero amounts.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return Money{}, ErrInvalidAmount
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	v = v.Round(2)
	if !v.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Value: v}, nil
}

// FromCents restores the exact decimal value from stored integer cents.
func FromCents(cents int64) Money {
	return Money{Value: decimal.New(cents, -2)}
}

// Cents returns the value as integer cents for storage and summation.
func (m Money) Cents() int64 {
	return m.Value.Shift(2).Round(0).IntPart()
}

// Convert multiplies by an exchange rate in decimal arithmetic and rounds
// half-up to two fractional digits.
func (m Money) Convert(rate decimal.Decimal) Money {
	return Money{Value: m.Value.Mul(rate).Round(2)}
}

func (m Money) Validate() error {
	if !m.Value.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// String formats the value with exactly two fractional digits.
func (m Money) String() string {
	return m.Value.StringFixed(2)
}
