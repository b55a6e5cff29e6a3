// Package core provides money parsing and handling utilities.
//
// This file contains the conversions between user-typed amounts, the float
// stored on a Transaction, and the two-decimal text used in reports and CSV.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-typed amount to a positive float.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// thousands separators and zero are rejected with a validation error on the
// amount field.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, invalid("amount", ErrInvalidAmount)
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return 0, invalid("amount", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return 0, invalid("amount", ErrInvalidAmount)
	}
	return d.InexactFloat64(), nil
}

// FormatAmount renders v with exactly two decimals, rounding half away from zero.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
