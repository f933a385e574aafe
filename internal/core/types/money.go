// Package types provides shared value types.
package types

import (
	"github.com/shopspring/decimal"
)

// Money is a monetary amount with full precision.
// decimal.Decimal avoids binary floating-point drift; rounding to two
// decimals happens only at line and document total boundaries, never
// mid-calculation.
type Money = decimal.Decimal

// NewMoneyFromString parses a Money value. Preferred constructor.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney parses a Money value, panicking on error.
// For constants and tests only.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MoneyFromInt creates a Money value from whole currency units.
func MoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Zero returns the zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round2 rounds to two decimal places (half away from zero).
func Round2(m Money) Money {
	return m.Round(2)
}

// MaxZero floors a value at zero. Grand totals never go negative even when
// a transaction-level discount exceeds the taxed subtotal.
func MaxZero(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}
