// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from form input
// and formatting them for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds on a single amount. Exponents are checked before any arithmetic so a
// value like 1e2000000000 is rejected without being expanded.
const (
	minAmountExponent = -8
	maxAmountExponent = 12
)

// MaxAmount is the exclusive upper bound of a single amount.
var MaxAmount = decimal.New(1, maxAmountExponent)

// ParseAmount coerces a form value to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. An empty
// string coerces to zero, like an empty number input does in a browser. Sign is
// kept: positivity is checked by ValidateAmount, not here.
//
// Examples:
//   ParseAmount("12.34") -> 12.34, nil
//   ParseAmount("12,34") -> 12.34, nil
//   ParseAmount("")      -> 0, nil
//   ParseAmount("abc")   -> 0, ErrInvalidAmount
//   ParseAmount("1e2000000000") -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Count(s, ",") > 0 && strings.Contains(s, ".") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ValidateAmount rejects zero, negative and out of range amounts.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return ErrInvalidAmount
	}
	if d.GreaterThanOrEqual(MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// FormatAmount renders d with exactly two decimals, e.g. "45.50".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatCurrency renders d as a dollar amount, e.g. "$45.50".
func FormatCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
