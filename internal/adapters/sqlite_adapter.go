// Package adapters exposes the read models the dashboard renders from.
// Everything is computed from SQLite lists with decimal arithmetic; the
// handlers never see repository types beyond these shapes.
package adapters

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
	"smartfinances/internal/storage"
)

type (
	// TrendPoint is one period's total spending.
	TrendPoint struct {
		Period string
		Total  decimal.Decimal
	}

	// CategoryShare is one category's slice of a period's spending.
	CategoryShare struct {
		Category string
		Total    decimal.Decimal
		Share    decimal.Decimal // fraction of the period total, 0..1
	}

	// FundSummary is the latest stored position of one fund.
	FundSummary struct {
		Account  string
		Fund     string
		AsOf     core.Day
		Value    decimal.Decimal
		Invested decimal.Decimal
		Return   decimal.Decimal // fractional, 0.05 for +5%
	}

	// PortfolioSummary aggregates the latest value of every platform
	// account for the summary table.
	PortfolioSummary struct {
		Funds []FundSummary
		Cash  decimal.Decimal
		Total decimal.Decimal
		AsOf  core.Day
	}

	// SeriesPoint is one charted sample.
	SeriesPoint struct {
		Date  core.Day
		Value decimal.Decimal
	}

	// PortfolioSeries carries one account's charted history keyed by fund
	// name, with Cash and Total alongside the real funds.
	PortfolioSeries struct {
		Account string
		Funds   map[string][]SeriesPoint
	}
)

// SQLiteAdapter bridges the repository to the dashboard handlers.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	start   core.Day
}

func NewSQLiteAdapter(repo *storage.SQLiteRepository, start core.Day) *SQLiteAdapter {
	return &SQLiteAdapter{storage: repo, start: start}
}

func (a *SQLiteAdapter) window() core.Window {
	return core.Window{From: a.start, To: core.Today()}
}

// PivotData builds the period-by-category table over the full tracked
// window.
func (a *SQLiteAdapter) PivotData(ctx context.Context, params core.PivotParams) (core.PivotTable, error) {
	expenses, err := a.storage.ListExpenses(ctx, a.window())
	if err != nil {
		return core.PivotTable{}, fmt.Errorf("load expenses: %w", err)
	}
	return core.BuildPivot(expenses, params)
}

// ExpenseTrend returns total spending per period for the trend chart.
func (a *SQLiteAdapter) ExpenseTrend(ctx context.Context, period core.PivotPeriod) ([]TrendPoint, error) {
	table, err := a.PivotData(ctx, core.PivotParams{
		Period:       period,
		Level:        core.LevelCategory,
		SharingGroup: core.AllSharingGroups,
	})
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, len(table.Rows))
	for i, row := range table.Rows {
		points[i] = TrendPoint{Period: row.Period, Total: row.Total}
	}
	return points, nil
}

// CategoryBreakdown splits the latest period's spending by category,
// largest first.
func (a *SQLiteAdapter) CategoryBreakdown(ctx context.Context, period core.PivotPeriod) ([]CategoryShare, error) {
	table, err := a.PivotData(ctx, core.PivotParams{
		Period:       period,
		Level:        core.LevelCategory,
		SharingGroup: core.AllSharingGroups,
	})
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, nil
	}

	latest := table.Rows[len(table.Rows)-1]
	var shares []CategoryShare
	for i, column := range table.Columns {
		cell := latest.Cells[i]
		if cell.IsZero() {
			continue
		}
		share := decimal.Zero
		if latest.Total.IsPositive() {
			share = cell.Div(latest.Total)
		}
		shares = append(shares, CategoryShare{Category: column, Total: cell, Share: share})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Total.GreaterThan(shares[j].Total)
	})
	return shares, nil
}

// MonthlyExpenseTotal sums the current calendar month's spending.
func (a *SQLiteAdapter) MonthlyExpenseTotal(ctx context.Context) (decimal.Decimal, error) {
	today := core.Today()
	expenses, err := a.storage.ListExpenses(ctx, core.Window{From: today.FirstOfMonth(), To: today})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("load expenses: %w", err)
	}

	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (a *SQLiteAdapter) MonthlyIncomeTotal(ctx context.Context) (decimal.Decimal, error) {
	today := core.Today()
	income, err := a.storage.ListIncome(ctx, core.Window{From: today.FirstOfMonth(), To: today})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("load income: %w", err)
	}

	total := decimal.Zero
	for _, i := range income {
		total = total.Add(i.Amount)
	}
	return total, nil
}

// AddIncome records a manually entered income row.
func (a *SQLiteAdapter) AddIncome(ctx context.Context, income core.Income) (core.Income, error) {
	if err := income.Validate(); err != nil {
		return core.Income{}, err
	}
	return a.storage.AddIncome(ctx, income)
}

// Ping reports whether the database answers, for readiness checks.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}

// SharingGroups lists the sharing-group ids seen in the stored expenses.
func (a *SQLiteAdapter) SharingGroups(ctx context.Context) ([]int64, error) {
	return a.storage.ListSharingGroups(ctx)
}

// PortfolioAccounts lists the platform accounts with stored value history.
func (a *SQLiteAdapter) PortfolioAccounts(ctx context.Context) ([]string, error) {
	return a.storage.ListPortfolioAccounts(ctx)
}

// PortfolioSummaryData reduces every account's history to its latest
// position per fund, plus overall cash and total.
func (a *SQLiteAdapter) PortfolioSummaryData(ctx context.Context) (PortfolioSummary, error) {
	accounts, err := a.storage.ListPortfolioAccounts(ctx)
	if err != nil {
		return PortfolioSummary{}, err
	}

	summary := PortfolioSummary{Cash: decimal.Zero, Total: decimal.Zero}
	for _, account := range accounts {
		values, err := a.storage.ListPortfolioValues(ctx, account)
		if err != nil {
			return PortfolioSummary{}, fmt.Errorf("%s: %w", account, err)
		}

		latest := latestPerFund(values)
		for fund, v := range latest {
			if v.Date.After(summary.AsOf) {
				summary.AsOf = v.Date
			}
			switch fund {
			case core.CashFund:
				summary.Cash = summary.Cash.Add(v.Value)
			case core.TotalFund:
				summary.Total = summary.Total.Add(v.Value)
			default:
				ret := decimal.Zero
				if v.Invested.IsPositive() {
					ret = v.Value.Sub(v.Invested).Div(v.Invested)
				}
				summary.Funds = append(summary.Funds, FundSummary{
					Account:  account,
					Fund:     fund,
					AsOf:     v.Date,
					Value:    v.Value,
					Invested: v.Invested,
					Return:   ret,
				})
			}
		}
	}

	sort.Slice(summary.Funds, func(i, j int) bool {
		if summary.Funds[i].Account != summary.Funds[j].Account {
			return summary.Funds[i].Account < summary.Funds[j].Account
		}
		return summary.Funds[i].Fund < summary.Funds[j].Fund
	})
	return summary, nil
}

// PortfolioSeriesData returns one account's full charted history.
func (a *SQLiteAdapter) PortfolioSeriesData(ctx context.Context, account string) (PortfolioSeries, error) {
	values, err := a.storage.ListPortfolioValues(ctx, account)
	if err != nil {
		return PortfolioSeries{}, fmt.Errorf("%s: %w", account, err)
	}

	series := PortfolioSeries{Account: account, Funds: map[string][]SeriesPoint{}}
	for _, v := range values {
		series.Funds[v.Fund] = append(series.Funds[v.Fund], SeriesPoint{Date: v.Date, Value: v.Value})
	}
	for fund := range series.Funds {
		points := series.Funds[fund]
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		series.Funds[fund] = points
	}
	return series, nil
}

// InflationSeries returns the stored monthly CPIH points.
func (a *SQLiteAdapter) InflationSeries(ctx context.Context) ([]core.InflationPoint, error) {
	return a.storage.ListInflation(ctx)
}

// LastRefresh returns the most recent refresh run, nil when none has run.
func (a *SQLiteAdapter) LastRefresh(ctx context.Context) (*storage.RefreshRunInfo, error) {
	return a.storage.LastRefreshRun(ctx)
}

func latestPerFund(values []storage.PortfolioValue) map[string]storage.PortfolioValue {
	latest := map[string]storage.PortfolioValue{}
	for _, v := range values {
		if current, ok := latest[v.Fund]; !ok || v.Date.After(current.Date) {
			latest[v.Fund] = v
		}
	}
	return latest
}
