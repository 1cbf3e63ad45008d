package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
	"smartfinances/internal/storage"
)

// ExpenseIngestService pulls the full expense history from the expense
// provider and upserts the configured user's share of every live row.
type ExpenseIngestService struct {
	storage *storage.SQLiteRepository
	source  feeds.ExpenseSource
	rates   *RateService
	userID  int64
	start   core.Day
}

func NewExpenseIngestService(repo *storage.SQLiteRepository, source feeds.ExpenseSource, rates *RateService, userID int64, start core.Day) *ExpenseIngestService {
	return &ExpenseIngestService{
		storage: repo,
		source:  source,
		rates:   rates,
		userID:  userID,
		start:   start,
	}
}

// Refresh fetches one calendar-year window at a time from the configured
// start through today, converts currencies and upserts. Re-running is
// idempotent: rows are keyed on the upstream id, and edits upstream
// overwrite the stored row. Returns how many rows were written.
func (s *ExpenseIngestService) Refresh(ctx context.Context) (int, error) {
	windows, err := core.YearWindows(s.start, core.Today())
	if err != nil {
		return 0, fmt.Errorf("build fetch windows: %w", err)
	}

	var raw []feeds.SplitwiseExpense
	for _, window := range windows {
		batch, err := s.source.FetchExpenses(ctx, window)
		if err != nil {
			return 0, fmt.Errorf("fetch expenses %s to %s: %w", window.From, window.To, err)
		}
		raw = append(raw, batch...)
	}

	// Windows overlap on year boundaries; the id set dedupes them.
	seen := make(map[int64]bool, len(raw))
	expenses := make([]core.Expense, 0, len(raw))
	for _, row := range raw {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true
		e, ok := s.toExpense(ctx, row)
		if !ok {
			continue
		}
		expenses = append(expenses, e)
	}

	converted, err := s.rates.Convert(ctx, expenses)
	if err != nil {
		return 0, fmt.Errorf("convert currencies: %w", err)
	}

	count, err := s.storage.UpsertExpenses(ctx, converted)
	if err != nil {
		return 0, fmt.Errorf("store expenses: %w", err)
	}

	slog.InfoContext(ctx, "Expenses refreshed",
		"fetched", len(raw), "kept", len(expenses), "upserted", count)
	return count, nil
}

// toExpense filters and attributes one provider row. Deleted rows,
// settlement payments, rows not involving the user and rows where the
// user owes nothing are all dropped.
func (s *ExpenseIngestService) toExpense(ctx context.Context, row feeds.SplitwiseExpense) (core.Expense, bool) {
	if row.DeletedAt != nil || row.Payment {
		return core.Expense{}, false
	}

	var owedStr, paidStr string
	found := false
	for _, share := range row.Users {
		if share.UserID == s.userID {
			owedStr, paidStr = share.OwedShare, share.PaidShare
			found = true
			break
		}
	}
	if !found {
		return core.Expense{}, false
	}

	owed, err := decimal.NewFromString(owedStr)
	if err != nil || !owed.IsPositive() {
		return core.Expense{}, false
	}
	paid, err := decimal.NewFromString(paidStr)
	if err != nil {
		paid = decimal.Zero
	}

	if len(row.Date) < len(core.DayFormat) {
		slog.WarnContext(ctx, "Skipping expense with malformed date", "id", row.ID, "date", row.Date)
		return core.Expense{}, false
	}
	day, err := core.ParseDay(row.Date[:len(core.DayFormat)])
	if err != nil {
		slog.WarnContext(ctx, "Skipping expense with malformed date", "id", row.ID, "date", row.Date)
		return core.Expense{}, false
	}

	details := ""
	if row.Details != nil {
		details = strings.TrimSpace(strings.ReplaceAll(*row.Details, "\n", " "))
	}
	var groupID int64
	if row.GroupID != nil {
		groupID = *row.GroupID
	}

	return core.Expense{
		ID:           row.ID,
		Date:         day,
		Description:  strings.TrimSpace(row.Description),
		Subcategory:  row.Category,
		Account:      core.AccountFromDetails(details),
		CurrencyCode: row.CurrencyCode,
		Details:      details,
		GroupID:      groupID,
		Owed:         owed,
		Paid:         paid,
	}, true
}
