package storage

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
)

// Row types mirror the schema one to one. Decimal columns are TEXT in
// SQLite and scan through decimal.Decimal; date columns scan through
// core.Day.

type ExpenseCategory struct {
	Category     string
	ExpenseGroup string
}

type Account struct {
	Name        string
	AccountType string
	StartDate   core.Day
	EndDate     core.Day
}

type Expense struct {
	ID           int64
	Date         core.Day
	Description  string
	ToAccount    string
	CurrencyCode string
	Details      string
	GroupID      int64
	Amount       decimal.Decimal
	AmountOwed   decimal.Decimal
	AmountPaid   decimal.Decimal
	Subcategory  string
	CreatedAt    string
	UpdatedAt    string
}

type Income struct {
	ID          int64
	Date        core.Day
	Amount      decimal.Decimal
	Description string
	ToAccount   string
	Category    string
}

type Transfer struct {
	ID          int64
	Date        core.Day
	Amount      decimal.Decimal
	Description string
	ToAccount   string
	FromAccount string
}

type ExchangeRate struct {
	DateCurr     string
	Date         core.Day
	CurrencyCode string
	RatePerBase  decimal.Decimal
}

type Investment struct {
	Ticker    string
	Name      string
	Source    string
	StartDate core.Day
	EndDate   core.Day
	Account   string
}

type InvestmentPrice struct {
	Ticker   string
	Date     core.Day
	AdjClose decimal.Decimal
}

type Inflation struct {
	Month core.Day
	Rate  decimal.Decimal
}

type PlatformTransaction struct {
	ID              int64
	Account         string
	Date            core.Day
	Category        string
	Fund            string
	Price           decimal.Decimal
	CorrectedShares decimal.Decimal
}

type PortfolioValue struct {
	Account   string
	Fund      string
	Date      core.Day
	UnitPrice decimal.Decimal
	Shares    decimal.Decimal
	Invested  decimal.Decimal
	Value     decimal.Decimal
}

type RefreshRun struct {
	ID         int64
	Scope      string
	StartedAt  string
	FinishedAt sql.NullString
	Status     string
	Detail     string
}
