package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Price history providers for investments.
	SourceYahoo = "YF"
	SourceEODHD = "EODHD"

	// Accounts an expense can be paid from.
	AccountCurrent = "Current"
	AccountPayPal  = "PayPal"

	// Platform transaction categories, spelled exactly as they appear in
	// the platform transaction sheet.
	TransferIn  TransactionCategory = "Transfer in"
	TransferOut TransactionCategory = "Transfer out"
	FeeService  TransactionCategory = "Fee - service"
	FeeAdvisor  TransactionCategory = "Fee - advisor"
	Buy         TransactionCategory = "Buy"
	Sell        TransactionCategory = "Sell"
	Dividend    TransactionCategory = "Dividend"
)

type (
	TransactionCategory string

	// Expense is a single Splitwise expense attributed to the configured
	// user. ID is the upstream Splitwise expense id and the upsert key.
	Expense struct {
		ID           int64
		Date         Day
		Description  string
		Subcategory  string // Splitwise category name, e.g. "Groceries"
		Account      string // Current or PayPal, derived from details
		CurrencyCode string
		Details      string
		GroupID      int64 // Splitwise sharing group, 0 = personal
		Owed         decimal.Decimal
		Paid         decimal.Decimal
		Amount       decimal.Decimal // Owed converted to the base currency
	}

	Income struct {
		ID          int64
		Date        Day
		Description string
		Account     string
		Category    string
		Amount      decimal.Decimal
	}

	// Investment is one tracked fund or security.
	Investment struct {
		Ticker    string
		Name      string
		Source    string // SourceYahoo or SourceEODHD
		StartDate Day
		EndDate   Day // zero when still held
		Account   string
	}

	// PricePoint is a daily adjusted close as quoted by the source.
	// London-listed funds quote in pence.
	PricePoint struct {
		Date     Day
		AdjClose decimal.Decimal
	}

	// InflationPoint is a monthly CPIH rate; Month is normalized to the
	// first of the month.
	InflationPoint struct {
		Month Day
		Rate  decimal.Decimal
	}

	// RateKey identifies one cached exchange rate.
	RateKey struct {
		Date     Day
		Currency string
	}

	// PlatformTransaction is one row of the hand-kept platform log.
	PlatformTransaction struct {
		Account  string
		Date     Day
		Category TransactionCategory
		Fund     string          // empty for cash-only rows
		Price    decimal.Decimal // always positive; category gives the sign
		// CorrectedShares is the broker-stated unit count. When zero the
		// share delta is derived from Price and the unit price.
		CorrectedShares decimal.Decimal
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyTicker        = errors.New("empty ticker")
	ErrUnknownPriceSource = errors.New("unknown price source")
	ErrUnknownCategory    = errors.New("unknown transaction category")
	ErrMissingFund        = errors.New("transaction names no fund")
	ErrNoPriceHistory     = errors.New("no price on or before date")
	ErrOversoldFund       = errors.New("sell exceeds shares owned")
	ErrMissingRate        = errors.New("no exchange rate for date and currency")
)

func (c TransactionCategory) Validate() error {
	switch c {
	case TransferIn, TransferOut, FeeService, FeeAdvisor, Buy, Sell, Dividend:
		return nil
	}
	return ErrUnknownCategory
}

// MovesFund reports whether the category changes a fund position rather
// than cash alone.
func (c TransactionCategory) MovesFund() bool {
	return c == Buy || c == Sell
}

func (e Expense) Validate() error {
	if e.ID <= 0 {
		return errors.New("expense id must be positive")
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.CurrencyCode) != 3 {
		return ErrInvalidCurrency
	}
	if !e.Owed.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (i Income) Validate() error {
	if i.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(i.Description) == "" {
		return ErrEmptyDescription
	}
	if !i.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !ValidIncomeCategory(i.Category) {
		return ErrUnknownCategory
	}
	return nil
}

// ValidIncomeCategory reports whether name is one of IncomeCategories.
func ValidIncomeCategory(name string) bool {
	for _, c := range IncomeCategories {
		if c == name {
			return true
		}
	}
	return false
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Ticker) == "" {
		return ErrEmptyTicker
	}
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("empty investment name")
	}
	if i.Source != SourceYahoo && i.Source != SourceEODHD {
		return ErrUnknownPriceSource
	}
	if i.StartDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t PlatformTransaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := t.Category.Validate(); err != nil {
		return err
	}
	if !t.Price.IsPositive() {
		return ErrInvalidAmount
	}
	if t.Category.MovesFund() && strings.TrimSpace(t.Fund) == "" {
		return ErrMissingFund
	}
	return nil
}

// String renders the cache key in its storage form, e.g. "2023-04-01_EUR".
func (k RateKey) String() string {
	return k.Date.String() + "_" + k.Currency
}
