// Package core provides the bookkeeping domain types and the rules that
// apply when records are created.
//
// This file contains amount parsing and rupiah formatting.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input to a non-negative decimal amount.
//
// Empty input is zero, since every optional amount defaults to 0. Both dot
// and comma decimal separators are accepted when they appear once; thousands
// separators are rejected rather than guessed.
//
// Examples:
//   ParseAmount("200000")   -> 200000, nil
//   ParseAmount("12500.5")  -> 12500.5, nil
//   ParseAmount("12500,5")  -> 12500.5, nil
//   ParseAmount("")         -> 0, nil
//   ParseAmount("-1")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatRupiah renders an amount as "Rp 1.250.000" (Indonesian grouping,
// no fraction digits).
func FormatRupiah(d decimal.Decimal) string {
	neg := d.IsNegative()
	digits := d.Abs().Round(0).StringFixed(0)

	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
