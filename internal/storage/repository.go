package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	if err := repo.seedTaxonomy(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed taxonomy: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable, for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Account types as stored in accounts.account_type.
const (
	AccountTypeStandard = "standard"
	AccountTypePlatform = "platform"
)

// EnsureAccount registers an account row. Platform accounts come from the
// parameters file, standard accounts from the expense classifier.
func (r *SQLiteRepository) EnsureAccount(ctx context.Context, name, accountType string, start core.Day) error {
	err := r.queries.UpsertAccount(ctx, UpsertAccountParams{
		Name:        name,
		AccountType: accountType,
		StartDate:   start,
	})
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", name, err)
	}
	return nil
}

// UpsertExpenses writes a batch of expenses keyed on their upstream id.
// Unseen subcategories are registered against their mapped group first so
// re-running a refresh never fails on a new upstream category.
func (r *SQLiteRepository) UpsertExpenses(ctx context.Context, expenses []core.Expense) (int, error) {
	err := r.withTx(ctx, func(q *Queries) error {
		for _, e := range expenses {
			err := q.SeedExpenseCategory(ctx, SeedExpenseCategoryParams{
				Category:     e.Subcategory,
				ExpenseGroup: core.GroupForSubcategory(e.Subcategory),
			})
			if err != nil {
				return fmt.Errorf("register subcategory %s: %w", e.Subcategory, err)
			}
			err = q.UpsertExpense(ctx, UpsertExpenseParams{
				ID:           e.ID,
				Date:         e.Date,
				Description:  e.Description,
				ToAccount:    e.Account,
				CurrencyCode: e.CurrencyCode,
				Details:      e.Details,
				GroupID:      e.GroupID,
				Amount:       e.Amount,
				AmountOwed:   e.Owed,
				AmountPaid:   e.Paid,
				Subcategory:  e.Subcategory,
			})
			if err != nil {
				return fmt.Errorf("upsert expense %d: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Expenses upserted", "count", len(expenses))
	return len(expenses), nil
}

// ListExpenses returns the expenses dated inside the window, oldest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, window core.Window) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesBetween(ctx, ListExpensesBetweenParams{
		FromDate: window.From,
		ToDate:   window.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses := make([]core.Expense, len(rows))
	for i, row := range rows {
		expenses[i] = core.Expense{
			ID:           row.ID,
			Date:         row.Date,
			Description:  row.Description,
			Subcategory:  row.Subcategory,
			Account:      row.ToAccount,
			CurrencyCode: row.CurrencyCode,
			Details:      row.Details,
			GroupID:      row.GroupID,
			Owed:         row.AmountOwed,
			Paid:         row.AmountPaid,
			Amount:       row.Amount,
		}
	}
	return expenses, nil
}

// ListSharingGroups returns the distinct sharing-group ids seen in the
// expense table; 0 is the personal bucket.
func (r *SQLiteRepository) ListSharingGroups(ctx context.Context) ([]int64, error) {
	groups, err := r.queries.ListSharingGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sharing groups: %w", err)
	}
	return groups, nil
}

// SubcategoryGroups returns the stored subcategory to group mapping.
func (r *SQLiteRepository) SubcategoryGroups(ctx context.Context) (map[string]string, error) {
	rows, err := r.queries.ListExpenseCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expense categories: %w", err)
	}
	mapping := make(map[string]string, len(rows))
	for _, row := range rows {
		mapping[row.Category] = row.ExpenseGroup
	}
	return mapping, nil
}

// LoadRates returns every cached exchange rate keyed by date_curr.
func (r *SQLiteRepository) LoadRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.queries.ListExchangeRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exchange rates: %w", err)
	}
	rates := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		rates[row.DateCurr] = row.RatePerBase
	}
	return rates, nil
}

// SaveRate caches one fetched rate. Duplicate keys are ignored so two
// concurrent refreshes cannot conflict.
func (r *SQLiteRepository) SaveRate(ctx context.Context, key core.RateKey, rate decimal.Decimal) error {
	err := r.queries.InsertExchangeRate(ctx, InsertExchangeRateParams{
		DateCurr:     key.String(),
		Date:         key.Date,
		CurrencyCode: key.Currency,
		RatePerBase:  rate,
	})
	if err != nil {
		return fmt.Errorf("insert exchange rate %s: %w", key, err)
	}
	return nil
}

// UpsertInvestments syncs the declared instruments into the DB.
func (r *SQLiteRepository) UpsertInvestments(ctx context.Context, investments []core.Investment) error {
	return r.withTx(ctx, func(q *Queries) error {
		for _, inv := range investments {
			err := q.UpsertInvestment(ctx, UpsertInvestmentParams{
				Ticker:    inv.Ticker,
				Name:      inv.Name,
				Source:    inv.Source,
				StartDate: inv.StartDate,
				EndDate:   inv.EndDate,
				Account:   inv.Account,
			})
			if err != nil {
				return fmt.Errorf("upsert investment %s: %w", inv.Ticker, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ListInvestments(ctx context.Context) ([]core.Investment, error) {
	rows, err := r.queries.ListInvestments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	investments := make([]core.Investment, len(rows))
	for i, row := range rows {
		investments[i] = core.Investment{
			Ticker:    row.Ticker,
			Name:      row.Name,
			Source:    row.Source,
			StartDate: row.StartDate,
			EndDate:   row.EndDate,
			Account:   row.Account,
		}
	}
	return investments, nil
}

// LatestPriceDate returns the newest stored price date for a ticker, or
// the zero Day when no prices are stored yet.
func (r *SQLiteRepository) LatestPriceDate(ctx context.Context, ticker string) (core.Day, error) {
	latest, err := r.queries.GetLatestPriceDate(ctx, ticker)
	if err != nil {
		return core.Day{}, fmt.Errorf("latest price date for %s: %w", ticker, err)
	}
	return latest, nil
}

// InsertPrices appends new price points, ignoring dates already stored,
// and returns how many were actually new.
func (r *SQLiteRepository) InsertPrices(ctx context.Context, ticker string, points []core.PricePoint) (int, error) {
	inserted := 0
	err := r.withTx(ctx, func(q *Queries) error {
		for _, p := range points {
			n, err := q.InsertInvestmentPrice(ctx, InsertInvestmentPriceParams{
				Ticker:   ticker,
				Date:     p.Date,
				AdjClose: p.AdjClose,
			})
			if err != nil {
				return fmt.Errorf("insert price %s %s: %w", ticker, p.Date, err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		slog.InfoContext(ctx, "Price points inserted", "ticker", ticker, "count", inserted)
	}
	return inserted, nil
}

func (r *SQLiteRepository) ListPrices(ctx context.Context, ticker string) ([]core.PricePoint, error) {
	rows, err := r.queries.ListInvestmentPrices(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("list prices for %s: %w", ticker, err)
	}
	points := make([]core.PricePoint, len(rows))
	for i, row := range rows {
		points[i] = core.PricePoint{Date: row.Date, AdjClose: row.AdjClose}
	}
	return points, nil
}

// UpsertInflation writes the monthly series, overwriting revised months.
func (r *SQLiteRepository) UpsertInflation(ctx context.Context, points []core.InflationPoint) (int, error) {
	err := r.withTx(ctx, func(q *Queries) error {
		for _, p := range points {
			err := q.UpsertInflation(ctx, UpsertInflationParams{Month: p.Month, Rate: p.Rate})
			if err != nil {
				return fmt.Errorf("upsert inflation %s: %w", p.Month, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(points), nil
}

func (r *SQLiteRepository) ListInflation(ctx context.Context) ([]core.InflationPoint, error) {
	rows, err := r.queries.ListInflation(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inflation: %w", err)
	}
	points := make([]core.InflationPoint, len(rows))
	for i, row := range rows {
		points[i] = core.InflationPoint{Month: row.Month, Rate: row.Rate}
	}
	return points, nil
}

// ReplacePlatformTransactions swaps an account's staged transaction log
// for the freshly read sheet rows, atomically.
func (r *SQLiteRepository) ReplacePlatformTransactions(ctx context.Context, account string, txs []core.PlatformTransaction) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.DeletePlatformTransactions(ctx, account); err != nil {
			return fmt.Errorf("delete platform transactions: %w", err)
		}
		for _, tx := range txs {
			err := q.InsertPlatformTransaction(ctx, InsertPlatformTransactionParams{
				Account:         account,
				Date:            tx.Date,
				Category:        string(tx.Category),
				Fund:            tx.Fund,
				Price:           tx.Price,
				CorrectedShares: tx.CorrectedShares,
			})
			if err != nil {
				return fmt.Errorf("insert platform transaction: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Platform transactions staged", "account", account, "count", len(txs))
	return nil
}

func (r *SQLiteRepository) ListPlatformTransactions(ctx context.Context, account string) ([]core.PlatformTransaction, error) {
	rows, err := r.queries.ListPlatformTransactions(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("list platform transactions: %w", err)
	}
	txs := make([]core.PlatformTransaction, len(rows))
	for i, row := range rows {
		txs[i] = core.PlatformTransaction{
			Account:         row.Account,
			Date:            row.Date,
			Category:        core.TransactionCategory(row.Category),
			Fund:            row.Fund,
			Price:           row.Price,
			CorrectedShares: row.CorrectedShares,
		}
	}
	return txs, nil
}

// ReplacePortfolioValues swaps an account's stored value series for a
// fresh replay result. Cash and Total land as synthetic funds with only
// the value column populated.
func (r *SQLiteRepository) ReplacePortfolioValues(ctx context.Context, history core.PlatformHistory) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.DeletePortfolioValues(ctx, history.Account); err != nil {
			return fmt.Errorf("delete portfolio values: %w", err)
		}
		for fund, series := range history.Funds {
			for _, fp := range series {
				err := q.InsertPortfolioValue(ctx, InsertPortfolioValueParams{
					Account:   history.Account,
					Fund:      fund,
					Date:      fp.Date,
					UnitPrice: fp.UnitPrice,
					Shares:    fp.Shares,
					Invested:  fp.Invested,
					Value:     fp.Value,
				})
				if err != nil {
					return fmt.Errorf("insert portfolio value %s %s: %w", fund, fp.Date, err)
				}
			}
		}
		for _, p := range history.Cash {
			err := q.InsertPortfolioValue(ctx, InsertPortfolioValueParams{
				Account: history.Account,
				Fund:    core.CashFund,
				Date:    p.Date,
				Value:   p.Value,
			})
			if err != nil {
				return fmt.Errorf("insert cash value %s: %w", p.Date, err)
			}
		}
		for _, p := range history.Total {
			err := q.InsertPortfolioValue(ctx, InsertPortfolioValueParams{
				Account: history.Account,
				Fund:    core.TotalFund,
				Date:    p.Date,
				Value:   p.Value,
			})
			if err != nil {
				return fmt.Errorf("insert total value %s: %w", p.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Portfolio values replaced",
		"account", history.Account,
		"funds", len(history.Funds))
	return nil
}

func (r *SQLiteRepository) ListPortfolioValues(ctx context.Context, account string) ([]PortfolioValue, error) {
	rows, err := r.queries.ListPortfolioValues(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("list portfolio values: %w", err)
	}
	return rows, nil
}

func (r *SQLiteRepository) ListPortfolioAccounts(ctx context.Context) ([]string, error) {
	accounts, err := r.queries.ListPortfolioAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list portfolio accounts: %w", err)
	}
	return accounts, nil
}

// AddIncome records one manually entered income row.
func (r *SQLiteRepository) AddIncome(ctx context.Context, income core.Income) (core.Income, error) {
	row, err := r.queries.InsertIncome(ctx, InsertIncomeParams{
		Date:        income.Date,
		Amount:      income.Amount,
		Description: income.Description,
		ToAccount:   income.Account,
		Category:    income.Category,
	})
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	income.ID = row.ID
	return income, nil
}

func (r *SQLiteRepository) ListIncome(ctx context.Context, window core.Window) ([]core.Income, error) {
	rows, err := r.queries.ListIncomeBetween(ctx, ListIncomeBetweenParams{
		FromDate: window.From,
		ToDate:   window.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	income := make([]core.Income, len(rows))
	for i, row := range rows {
		income[i] = core.Income{
			ID:          row.ID,
			Date:        row.Date,
			Description: row.Description,
			Account:     row.ToAccount,
			Category:    row.Category,
			Amount:      row.Amount,
		}
	}
	return income, nil
}

// Refresh run statuses as stored in refresh_runs.status.
const (
	RunStatusRunning = "running"
	RunStatusOK      = "ok"
	RunStatusError   = "error"
)

// RefreshRunInfo is a refresh_runs row with parsed timestamps.
type RefreshRunInfo struct {
	ID         int64
	Scope      string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Status     string
	Detail     string
}

// StartRefreshRun opens a run record in the running state.
func (r *SQLiteRepository) StartRefreshRun(ctx context.Context, scope string) (int64, error) {
	id, err := r.queries.CreateRefreshRun(ctx, CreateRefreshRunParams{
		Scope:     scope,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, fmt.Errorf("create refresh run: %w", err)
	}
	return id, nil
}

// FinishRefreshRun closes a run record with its outcome.
func (r *SQLiteRepository) FinishRefreshRun(ctx context.Context, id int64, status, detail string) error {
	err := r.queries.FinishRefreshRun(ctx, FinishRefreshRunParams{
		ID:         id,
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
		Status:     status,
		Detail:     detail,
	})
	if err != nil {
		return fmt.Errorf("finish refresh run %d: %w", id, err)
	}
	return nil
}

// LastRefreshRun returns the most recent run, or nil when none exists.
func (r *SQLiteRepository) LastRefreshRun(ctx context.Context) (*RefreshRunInfo, error) {
	row, err := r.queries.GetLastRefreshRun(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last refresh run: %w", err)
	}
	info, err := refreshRunInfo(row)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// LastSuccessfulRefreshAt returns when the last ok run started, or the
// zero time when nothing has succeeded yet.
func (r *SQLiteRepository) LastSuccessfulRefreshAt(ctx context.Context) (time.Time, error) {
	row, err := r.queries.GetLastSuccessfulRefreshRun(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get last successful refresh run: %w", err)
	}
	started, err := time.Parse(time.RFC3339, row.StartedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse refresh run timestamp: %w", err)
	}
	return started, nil
}

func refreshRunInfo(row RefreshRun) (RefreshRunInfo, error) {
	started, err := time.Parse(time.RFC3339, row.StartedAt)
	if err != nil {
		return RefreshRunInfo{}, fmt.Errorf("parse refresh run timestamp: %w", err)
	}
	info := RefreshRunInfo{
		ID:        row.ID,
		Scope:     row.Scope,
		StartedAt: started,
		Status:    row.Status,
		Detail:    row.Detail,
	}
	if row.FinishedAt.Valid {
		finished, err := time.Parse(time.RFC3339, row.FinishedAt.String)
		if err != nil {
			return RefreshRunInfo{}, fmt.Errorf("parse refresh run timestamp: %w", err)
		}
		info.FinishedAt = finished
	}
	return info, nil
}
