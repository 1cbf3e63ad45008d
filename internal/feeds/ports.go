package feeds

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
)

// Ports for the external data providers. The ingest pipelines own all
// filtering and attribution; clients return what the provider sent.
type (
	ExpenseSource interface {
		FetchExpenses(ctx context.Context, window core.Window) ([]SplitwiseExpense, error)
	}

	// RateSource returns the rates of the given symbols against the base
	// currency on one historical date.
	RateSource interface {
		FetchRates(ctx context.Context, day core.Day, symbols []string) (map[string]decimal.Decimal, error)
	}

	// PriceSource returns daily adjusted closes for a ticker inside a
	// window, oldest first.
	PriceSource interface {
		FetchPrices(ctx context.Context, ticker string, window core.Window) ([]core.PricePoint, error)
	}

	// InflationSource returns the monthly inflation series from a given
	// month onward.
	InflationSource interface {
		FetchInflation(ctx context.Context, from core.Day) ([]core.InflationPoint, error)
	}
)

// SplitwiseExpense is one raw row from the expense provider. Pointer
// fields keep the upstream null/value distinction the filters depend on.
type SplitwiseExpense struct {
	ID           int64
	Date         string
	Description  string
	Payment      bool
	DeletedAt    *string
	Category     string
	CurrencyCode string
	GroupID      *int64
	Details      *string
	Users        []SplitwiseShare
}

// SplitwiseShare is one participant's owed and paid share, as decimal
// strings exactly as the provider quotes them.
type SplitwiseShare struct {
	UserID    int64
	OwedShare string
	PaidShare string
}

// PriceSources routes an investment's source code to its client.
type PriceSources map[string]PriceSource

func (s PriceSources) For(source string) (PriceSource, error) {
	client, ok := s[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownPriceSource, source)
	}
	return client, nil
}
