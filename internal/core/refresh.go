package core

import (
	"errors"
	"fmt"
	"strings"
)

// RefreshScope selects which ingest pipelines a refresh run covers.
type RefreshScope string

const (
	RefreshAll       RefreshScope = "all"
	RefreshExpenses  RefreshScope = "expenses"
	RefreshPrices    RefreshScope = "prices"
	RefreshInflation RefreshScope = "inflation"
	RefreshPortfolio RefreshScope = "portfolio"
)

var ErrUnknownScope = errors.New("unknown refresh scope")

// ParseRefreshScope normalizes a scope string from the wire or the CLI.
// Empty means all.
func ParseRefreshScope(s string) (RefreshScope, error) {
	scope := RefreshScope(strings.ToLower(strings.TrimSpace(s)))
	if scope == "" {
		return RefreshAll, nil
	}
	if err := scope.Validate(); err != nil {
		return "", err
	}
	return scope, nil
}

func (s RefreshScope) Validate() error {
	switch s {
	case RefreshAll, RefreshExpenses, RefreshPrices, RefreshInflation, RefreshPortfolio:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownScope, string(s))
}

func (s RefreshScope) String() string { return string(s) }
