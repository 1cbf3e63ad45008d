package storage

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
)

const seedIncomeCategory = `
INSERT OR IGNORE INTO income_categories (category) VALUES (?)
`

func (q *Queries) SeedIncomeCategory(ctx context.Context, category string) error {
	_, err := q.db.ExecContext(ctx, seedIncomeCategory, category)
	return err
}

const seedExpenseGroup = `
INSERT OR IGNORE INTO expense_groups (category) VALUES (?)
`

func (q *Queries) SeedExpenseGroup(ctx context.Context, category string) error {
	_, err := q.db.ExecContext(ctx, seedExpenseGroup, category)
	return err
}

const seedExpenseCategory = `
INSERT OR IGNORE INTO expense_categories (category, expense_group) VALUES (?, ?)
`

type SeedExpenseCategoryParams struct {
	Category     string
	ExpenseGroup string
}

func (q *Queries) SeedExpenseCategory(ctx context.Context, arg SeedExpenseCategoryParams) error {
	_, err := q.db.ExecContext(ctx, seedExpenseCategory, arg.Category, arg.ExpenseGroup)
	return err
}

const listExpenseCategories = `
SELECT category, expense_group FROM expense_categories ORDER BY category
`

func (q *Queries) ListExpenseCategories(ctx context.Context) ([]ExpenseCategory, error) {
	rows, err := q.db.QueryContext(ctx, listExpenseCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseCategory
	for rows.Next() {
		var i ExpenseCategory
		if err := rows.Scan(&i.Category, &i.ExpenseGroup); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertAccount = `
INSERT INTO accounts (name, account_type, start_date, end_date)
VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    account_type = excluded.account_type,
    start_date   = excluded.start_date,
    end_date     = excluded.end_date
`

type UpsertAccountParams struct {
	Name        string
	AccountType string
	StartDate   core.Day
	EndDate     core.Day
}

func (q *Queries) UpsertAccount(ctx context.Context, arg UpsertAccountParams) error {
	_, err := q.db.ExecContext(ctx, upsertAccount, arg.Name, arg.AccountType, arg.StartDate, arg.EndDate)
	return err
}

const listAccounts = `
SELECT name, account_type, start_date, end_date FROM accounts ORDER BY name
`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.Name, &i.AccountType, &i.StartDate, &i.EndDate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertExpense = `
INSERT INTO expenses (
    id, date, description, to_account, currency_code, details,
    group_id, amount, amount_owed, amount_paid, subcategory
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    date          = excluded.date,
    description   = excluded.description,
    to_account    = excluded.to_account,
    currency_code = excluded.currency_code,
    details       = excluded.details,
    group_id      = excluded.group_id,
    amount        = excluded.amount,
    amount_owed   = excluded.amount_owed,
    amount_paid   = excluded.amount_paid,
    subcategory   = excluded.subcategory,
    updated_at    = datetime('now')
`

type UpsertExpenseParams struct {
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
}

func (q *Queries) UpsertExpense(ctx context.Context, arg UpsertExpenseParams) error {
	_, err := q.db.ExecContext(ctx, upsertExpense,
		arg.ID,
		arg.Date,
		arg.Description,
		arg.ToAccount,
		arg.CurrencyCode,
		arg.Details,
		arg.GroupID,
		arg.Amount,
		arg.AmountOwed,
		arg.AmountPaid,
		arg.Subcategory,
	)
	return err
}

const listExpensesBetween = `
SELECT id, date, description, to_account, currency_code, details,
       group_id, amount, amount_owed, amount_paid, subcategory,
       created_at, updated_at
FROM expenses
WHERE date >= ? AND date <= ?
ORDER BY date, id
`

type ListExpensesBetweenParams struct {
	FromDate core.Day
	ToDate   core.Day
}

func (q *Queries) ListExpensesBetween(ctx context.Context, arg ListExpensesBetweenParams) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesBetween, arg.FromDate, arg.ToDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.Date,
			&i.Description,
			&i.ToAccount,
			&i.CurrencyCode,
			&i.Details,
			&i.GroupID,
			&i.Amount,
			&i.AmountOwed,
			&i.AmountPaid,
			&i.Subcategory,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listSharingGroups = `
SELECT DISTINCT group_id FROM expenses ORDER BY group_id
`

func (q *Queries) ListSharingGroups(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listSharingGroups)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var groupID int64
		if err := rows.Scan(&groupID); err != nil {
			return nil, err
		}
		items = append(items, groupID)
	}
	return items, rows.Err()
}

const insertIncome = `
INSERT INTO income (date, amount, description, to_account, category)
VALUES (?, ?, ?, ?, ?)
RETURNING id, date, amount, description, to_account, category
`

type InsertIncomeParams struct {
	Date        core.Day
	Amount      decimal.Decimal
	Description string
	ToAccount   string
	Category    string
}

func (q *Queries) InsertIncome(ctx context.Context, arg InsertIncomeParams) (Income, error) {
	row := q.db.QueryRowContext(ctx, insertIncome,
		arg.Date, arg.Amount, arg.Description, arg.ToAccount, arg.Category)
	var i Income
	err := row.Scan(&i.ID, &i.Date, &i.Amount, &i.Description, &i.ToAccount, &i.Category)
	return i, err
}

const listIncomeBetween = `
SELECT id, date, amount, description, to_account, category
FROM income
WHERE date >= ? AND date <= ?
ORDER BY date, id
`

type ListIncomeBetweenParams struct {
	FromDate core.Day
	ToDate   core.Day
}

func (q *Queries) ListIncomeBetween(ctx context.Context, arg ListIncomeBetweenParams) ([]Income, error) {
	rows, err := q.db.QueryContext(ctx, listIncomeBetween, arg.FromDate, arg.ToDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Income
	for rows.Next() {
		var i Income
		if err := rows.Scan(&i.ID, &i.Date, &i.Amount, &i.Description, &i.ToAccount, &i.Category); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertTransfer = `
INSERT INTO transfers (date, amount, description, to_account, from_account)
VALUES (?, ?, ?, ?, ?)
RETURNING id, date, amount, description, to_account, from_account
`

type InsertTransferParams struct {
	Date        core.Day
	Amount      decimal.Decimal
	Description string
	ToAccount   string
	FromAccount string
}

func (q *Queries) InsertTransfer(ctx context.Context, arg InsertTransferParams) (Transfer, error) {
	row := q.db.QueryRowContext(ctx, insertTransfer,
		arg.Date, arg.Amount, arg.Description, arg.ToAccount, arg.FromAccount)
	var i Transfer
	err := row.Scan(&i.ID, &i.Date, &i.Amount, &i.Description, &i.ToAccount, &i.FromAccount)
	return i, err
}

const listTransfersBetween = `
SELECT id, date, amount, description, to_account, from_account
FROM transfers
WHERE date >= ? AND date <= ?
ORDER BY date, id
`

type ListTransfersBetweenParams struct {
	FromDate core.Day
	ToDate   core.Day
}

func (q *Queries) ListTransfersBetween(ctx context.Context, arg ListTransfersBetweenParams) ([]Transfer, error) {
	rows, err := q.db.QueryContext(ctx, listTransfersBetween, arg.FromDate, arg.ToDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transfer
	for rows.Next() {
		var i Transfer
		if err := rows.Scan(&i.ID, &i.Date, &i.Amount, &i.Description, &i.ToAccount, &i.FromAccount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertExchangeRate = `
INSERT OR IGNORE INTO exchange_rates (date_curr, date, currency_code, rate_per_base)
VALUES (?, ?, ?, ?)
`

type InsertExchangeRateParams struct {
	DateCurr     string
	Date         core.Day
	CurrencyCode string
	RatePerBase  decimal.Decimal
}

func (q *Queries) InsertExchangeRate(ctx context.Context, arg InsertExchangeRateParams) error {
	_, err := q.db.ExecContext(ctx, insertExchangeRate,
		arg.DateCurr, arg.Date, arg.CurrencyCode, arg.RatePerBase)
	return err
}

const getExchangeRate = `
SELECT date_curr, date, currency_code, rate_per_base
FROM exchange_rates
WHERE date_curr = ?
`

func (q *Queries) GetExchangeRate(ctx context.Context, dateCurr string) (ExchangeRate, error) {
	row := q.db.QueryRowContext(ctx, getExchangeRate, dateCurr)
	var i ExchangeRate
	err := row.Scan(&i.DateCurr, &i.Date, &i.CurrencyCode, &i.RatePerBase)
	return i, err
}

const listExchangeRates = `
SELECT date_curr, date, currency_code, rate_per_base
FROM exchange_rates
ORDER BY date_curr
`

func (q *Queries) ListExchangeRates(ctx context.Context) ([]ExchangeRate, error) {
	rows, err := q.db.QueryContext(ctx, listExchangeRates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExchangeRate
	for rows.Next() {
		var i ExchangeRate
		if err := rows.Scan(&i.DateCurr, &i.Date, &i.CurrencyCode, &i.RatePerBase); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertInvestment = `
INSERT INTO investments (ticker, name, source, start_date, end_date, account)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(ticker) DO UPDATE SET
    name       = excluded.name,
    source     = excluded.source,
    start_date = excluded.start_date,
    end_date   = excluded.end_date,
    account    = excluded.account
`

type UpsertInvestmentParams struct {
	Ticker    string
	Name      string
	Source    string
	StartDate core.Day
	EndDate   core.Day
	Account   string
}

func (q *Queries) UpsertInvestment(ctx context.Context, arg UpsertInvestmentParams) error {
	_, err := q.db.ExecContext(ctx, upsertInvestment,
		arg.Ticker, arg.Name, arg.Source, arg.StartDate, arg.EndDate, arg.Account)
	return err
}

const getInvestment = `
SELECT ticker, name, source, start_date, end_date, account
FROM investments
WHERE ticker = ?
`

func (q *Queries) GetInvestment(ctx context.Context, ticker string) (Investment, error) {
	row := q.db.QueryRowContext(ctx, getInvestment, ticker)
	var i Investment
	err := row.Scan(&i.Ticker, &i.Name, &i.Source, &i.StartDate, &i.EndDate, &i.Account)
	return i, err
}

const listInvestments = `
SELECT ticker, name, source, start_date, end_date, account
FROM investments
ORDER BY ticker
`

func (q *Queries) ListInvestments(ctx context.Context) ([]Investment, error) {
	rows, err := q.db.QueryContext(ctx, listInvestments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Investment
	for rows.Next() {
		var i Investment
		if err := rows.Scan(&i.Ticker, &i.Name, &i.Source, &i.StartDate, &i.EndDate, &i.Account); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getLatestPriceDate = `
SELECT MAX(date) FROM investment_prices WHERE ticker = ?
`

// GetLatestPriceDate returns the zero Day when no prices are stored.
func (q *Queries) GetLatestPriceDate(ctx context.Context, ticker string) (core.Day, error) {
	row := q.db.QueryRowContext(ctx, getLatestPriceDate, ticker)
	var latest sql.NullString
	if err := row.Scan(&latest); err != nil {
		return core.Day{}, err
	}
	if !latest.Valid {
		return core.Day{}, nil
	}
	return core.ParseDay(latest.String)
}

const insertInvestmentPrice = `
INSERT OR IGNORE INTO investment_prices (ticker, date, adj_close)
VALUES (?, ?, ?)
`

type InsertInvestmentPriceParams struct {
	Ticker   string
	Date     core.Day
	AdjClose decimal.Decimal
}

func (q *Queries) InsertInvestmentPrice(ctx context.Context, arg InsertInvestmentPriceParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertInvestmentPrice, arg.Ticker, arg.Date, arg.AdjClose)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listInvestmentPrices = `
SELECT ticker, date, adj_close
FROM investment_prices
WHERE ticker = ?
ORDER BY date
`

func (q *Queries) ListInvestmentPrices(ctx context.Context, ticker string) ([]InvestmentPrice, error) {
	rows, err := q.db.QueryContext(ctx, listInvestmentPrices, ticker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InvestmentPrice
	for rows.Next() {
		var i InvestmentPrice
		if err := rows.Scan(&i.Ticker, &i.Date, &i.AdjClose); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertInflation = `
INSERT INTO inflation (month, rate)
VALUES (?, ?)
ON CONFLICT(month) DO UPDATE SET rate = excluded.rate
`

type UpsertInflationParams struct {
	Month core.Day
	Rate  decimal.Decimal
}

func (q *Queries) UpsertInflation(ctx context.Context, arg UpsertInflationParams) error {
	_, err := q.db.ExecContext(ctx, upsertInflation, arg.Month, arg.Rate)
	return err
}

const listInflation = `
SELECT month, rate FROM inflation ORDER BY month
`

func (q *Queries) ListInflation(ctx context.Context) ([]Inflation, error) {
	rows, err := q.db.QueryContext(ctx, listInflation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Inflation
	for rows.Next() {
		var i Inflation
		if err := rows.Scan(&i.Month, &i.Rate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deletePlatformTransactions = `
DELETE FROM platform_transactions WHERE account = ?
`

func (q *Queries) DeletePlatformTransactions(ctx context.Context, account string) error {
	_, err := q.db.ExecContext(ctx, deletePlatformTransactions, account)
	return err
}

const insertPlatformTransaction = `
INSERT INTO platform_transactions (account, date, category, fund, price, corrected_shares)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertPlatformTransactionParams struct {
	Account         string
	Date            core.Day
	Category        string
	Fund            string
	Price           decimal.Decimal
	CorrectedShares decimal.Decimal
}

func (q *Queries) InsertPlatformTransaction(ctx context.Context, arg InsertPlatformTransactionParams) error {
	_, err := q.db.ExecContext(ctx, insertPlatformTransaction,
		arg.Account, arg.Date, arg.Category, arg.Fund, arg.Price, arg.CorrectedShares)
	return err
}

const listPlatformTransactions = `
SELECT id, account, date, category, fund, price, corrected_shares
FROM platform_transactions
WHERE account = ?
ORDER BY date, id
`

func (q *Queries) ListPlatformTransactions(ctx context.Context, account string) ([]PlatformTransaction, error) {
	rows, err := q.db.QueryContext(ctx, listPlatformTransactions, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlatformTransaction
	for rows.Next() {
		var i PlatformTransaction
		if err := rows.Scan(&i.ID, &i.Account, &i.Date, &i.Category, &i.Fund, &i.Price, &i.CorrectedShares); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deletePortfolioValues = `
DELETE FROM portfolio_values WHERE account = ?
`

func (q *Queries) DeletePortfolioValues(ctx context.Context, account string) error {
	_, err := q.db.ExecContext(ctx, deletePortfolioValues, account)
	return err
}

const insertPortfolioValue = `
INSERT INTO portfolio_values (account, fund, date, unit_price, shares, invested, value)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertPortfolioValueParams struct {
	Account   string
	Fund      string
	Date      core.Day
	UnitPrice decimal.Decimal
	Shares    decimal.Decimal
	Invested  decimal.Decimal
	Value     decimal.Decimal
}

func (q *Queries) InsertPortfolioValue(ctx context.Context, arg InsertPortfolioValueParams) error {
	_, err := q.db.ExecContext(ctx, insertPortfolioValue,
		arg.Account, arg.Fund, arg.Date, arg.UnitPrice, arg.Shares, arg.Invested, arg.Value)
	return err
}

const listPortfolioValues = `
SELECT account, fund, date, unit_price, shares, invested, value
FROM portfolio_values
WHERE account = ?
ORDER BY fund, date
`

func (q *Queries) ListPortfolioValues(ctx context.Context, account string) ([]PortfolioValue, error) {
	rows, err := q.db.QueryContext(ctx, listPortfolioValues, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PortfolioValue
	for rows.Next() {
		var i PortfolioValue
		if err := rows.Scan(&i.Account, &i.Fund, &i.Date, &i.UnitPrice, &i.Shares, &i.Invested, &i.Value); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listPortfolioAccounts = `
SELECT DISTINCT account FROM portfolio_values ORDER BY account
`

func (q *Queries) ListPortfolioAccounts(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listPortfolioAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, err
		}
		items = append(items, account)
	}
	return items, rows.Err()
}

const createRefreshRun = `
INSERT INTO refresh_runs (scope, started_at, status)
VALUES (?, ?, 'running')
RETURNING id
`

type CreateRefreshRunParams struct {
	Scope     string
	StartedAt string
}

func (q *Queries) CreateRefreshRun(ctx context.Context, arg CreateRefreshRunParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRefreshRun, arg.Scope, arg.StartedAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const finishRefreshRun = `
UPDATE refresh_runs SET finished_at = ?, status = ?, detail = ? WHERE id = ?
`

type FinishRefreshRunParams struct {
	ID         int64
	FinishedAt string
	Status     string
	Detail     string
}

func (q *Queries) FinishRefreshRun(ctx context.Context, arg FinishRefreshRunParams) error {
	_, err := q.db.ExecContext(ctx, finishRefreshRun, arg.FinishedAt, arg.Status, arg.Detail, arg.ID)
	return err
}

const getLastRefreshRun = `
SELECT id, scope, started_at, finished_at, status, detail
FROM refresh_runs
ORDER BY id DESC
LIMIT 1
`

func (q *Queries) GetLastRefreshRun(ctx context.Context) (RefreshRun, error) {
	row := q.db.QueryRowContext(ctx, getLastRefreshRun)
	var i RefreshRun
	err := row.Scan(&i.ID, &i.Scope, &i.StartedAt, &i.FinishedAt, &i.Status, &i.Detail)
	return i, err
}

const getLastSuccessfulRefreshRun = `
SELECT id, scope, started_at, finished_at, status, detail
FROM refresh_runs
WHERE status = 'ok'
ORDER BY id DESC
LIMIT 1
`

func (q *Queries) GetLastSuccessfulRefreshRun(ctx context.Context) (RefreshRun, error) {
	row := q.db.QueryRowContext(ctx, getLastSuccessfulRefreshRun)
	var i RefreshRun
	err := row.Scan(&i.ID, &i.Scope, &i.StartedAt, &i.FinishedAt, &i.Status, &i.Detail)
	return i, err
}
