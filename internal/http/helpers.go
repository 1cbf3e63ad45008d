package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// newRequestID creates a unique request ID for tracing.
func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// formatPounds renders an amount as sterling with thousands separators,
// e.g. "£1,234.56".
func formatPounds(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	dot := strings.IndexByte(fixed, '.')
	intPart, frac := fixed[:dot], fixed[dot:]

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}

	if amount.IsNegative() {
		return "-£" + b.String() + frac
	}
	return "£" + b.String() + frac
}

// formatPercent renders a fractional return as a signed percentage,
// e.g. 0.052 -> "+5.2%".
func formatPercent(fraction decimal.Decimal) string {
	pct := fraction.Mul(decimal.NewFromInt(100))
	s := pct.StringFixed(1) + "%"
	if pct.IsPositive() {
		return "+" + s
	}
	return s
}

// barWidth scales value against max to a 0..100 progress width, keeping
// tiny nonzero values visible.
func barWidth(value, max decimal.Decimal) int {
	if !max.IsPositive() || !value.IsPositive() {
		return 0
	}
	width := int(value.Mul(decimal.NewFromInt(100)).Div(max).Round(0).IntPart())
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
