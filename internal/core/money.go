// Package core holds the domain types and the pure calculation engines
// (currency-converted expenses, pivot aggregation, platform replay) shared
// by the services and the dashboard.
//
// All monetary values, rates, prices and share counts are decimals. Floats
// never enter the domain: foreign-currency division and pence-quoted unit
// prices both need sub-penny precision that survives a storage round trip.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user- or sheet-supplied monetary string to a
// decimal. It accepts both dot (12.34) and comma (12,34) separators and
// requires a strictly positive value.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	// Normalize decimal comma; reject thousands separators outright so
	// "1,234.56" cannot silently parse as something else.
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// penceInPound converts quoted fund prices to pounds. UK funds and the two
// price feeds quote in pence (GBX).
var penceInPound = decimal.NewFromInt(100)

// PenceToPounds converts a pence-quoted price to pounds.
func PenceToPounds(pence decimal.Decimal) decimal.Decimal {
	return pence.Div(penceInPound)
}
