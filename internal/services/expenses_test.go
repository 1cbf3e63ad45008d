package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
	"smartfinances/internal/feeds/memory"
	"smartfinances/internal/storage"
)

const testUserID = 42

func newExpenseService(t *testing.T, provider *memory.Store) (*ExpenseIngestService, *storage.SQLiteRepository, core.Day) {
	t.Helper()
	repo := newTestRepository(t)
	rates := NewRateService(repo, provider, "GBP")
	start := core.NewDay(core.Today().Year(), 1, 1)
	return NewExpenseIngestService(repo, provider, rates, testUserID, start), repo, start
}

func TestExpenseRefreshFiltersAndStores(t *testing.T) {
	provider := memory.New()
	svc, repo, start := newExpenseService(t, provider)

	today := core.Today()
	date := today.String() + "T10:30:00Z"
	deletedAt := today.String() + "T11:00:00Z"
	groupID := int64(777)
	details := "Paid via PayPal\nsplit with the flat"
	provider.SetExpenses([]feeds.SplitwiseExpense{
		{ID: 1, Date: date, Description: " Groceries run ", Category: "Groceries", CurrencyCode: "GBP",
			Users: []feeds.SplitwiseShare{{UserID: testUserID, OwedShare: "12.50", PaidShare: "25.00"}}},
		{ID: 2, Date: date, Description: "Dinner", Category: "Dining out", CurrencyCode: "GBP",
			GroupID: &groupID, Details: &details,
			Users: []feeds.SplitwiseShare{{UserID: testUserID, OwedShare: "20.00", PaidShare: "0"}}},
		{ID: 3, Date: date, Description: "Settle up", Payment: true, CurrencyCode: "GBP",
			Users: []feeds.SplitwiseShare{{UserID: testUserID, OwedShare: "5.00", PaidShare: "0"}}},
		{ID: 4, Date: date, Description: "Deleted upstream", DeletedAt: &deletedAt, Category: "General", CurrencyCode: "GBP",
			Users: []feeds.SplitwiseShare{{UserID: testUserID, OwedShare: "5.00", PaidShare: "0"}}},
		{ID: 5, Date: date, Description: "Someone else's", Category: "General", CurrencyCode: "GBP",
			Users: []feeds.SplitwiseShare{{UserID: 99, OwedShare: "5.00", PaidShare: "5.00"}}},
		{ID: 6, Date: date, Description: "Paid for a friend", Category: "General", CurrencyCode: "GBP",
			Users: []feeds.SplitwiseShare{{UserID: testUserID, OwedShare: "0", PaidShare: "30.00"}}},
	})

	count, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Refresh() = %d rows, want 2", count)
	}

	stored, err := repo.ListExpenses(context.Background(), core.Window{From: start, To: today.AddDays(1)})
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d expenses, want 2", len(stored))
	}
	byID := map[int64]core.Expense{}
	for _, e := range stored {
		byID[e.ID] = e
	}

	groceries := byID[1]
	if groceries.Description != "Groceries run" {
		t.Errorf("description = %q, want trimmed", groceries.Description)
	}
	if groceries.Account != core.AccountCurrent {
		t.Errorf("account = %q, want %q", groceries.Account, core.AccountCurrent)
	}
	if groceries.GroupID != 0 {
		t.Errorf("groupID = %d, want 0 for personal expense", groceries.GroupID)
	}
	if !groceries.Owed.Equal(dec(t, "12.50")) || !groceries.Paid.Equal(dec(t, "25.00")) {
		t.Errorf("shares = owed %s paid %s, want 12.50/25.00", groceries.Owed, groceries.Paid)
	}
	if !groceries.Amount.Equal(dec(t, "12.50")) {
		t.Errorf("amount = %s, want owed for a base currency row", groceries.Amount)
	}

	dinner := byID[2]
	if dinner.Account != core.AccountPayPal {
		t.Errorf("account = %q, want %q from details", dinner.Account, core.AccountPayPal)
	}
	if dinner.Details != "Paid via PayPal split with the flat" {
		t.Errorf("details = %q, want newlines flattened", dinner.Details)
	}
	if dinner.GroupID != 777 {
		t.Errorf("groupID = %d, want 777", dinner.GroupID)
	}
}

func TestExpenseRefreshDedupesOverlappingWindows(t *testing.T) {
	provider := memory.New()
	svc, repo, start := newExpenseService(t, provider)

	// A start inside the current year makes the first and last fetch
	// windows overlap, so the provider returns this row twice.
	today := core.Today()
	provider.SetExpenses([]feeds.SplitwiseExpense{
		{ID: 11, Date: today.String() + "T09:00:00Z", Description: "Coffee", Category: "General", CurrencyCode: "GBP",
			Users: []feeds.SplitwiseShare{{UserID: testUserID, OwedShare: "3.20", PaidShare: "3.20"}}},
	})

	count, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Refresh() = %d rows, want 1", count)
	}

	// Re-running ingests the same upstream row onto itself.
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
	stored, err := repo.ListExpenses(context.Background(), core.Window{From: start, To: today.AddDays(1)})
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("stored %d expenses after two refreshes, want 1", len(stored))
	}
}

func TestExpenseRefreshProviderError(t *testing.T) {
	provider := memory.New()
	svc, _, _ := newExpenseService(t, provider)
	provider.Fail(errors.New("splitwise down"))

	_, err := svc.Refresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fetch expenses") {
		t.Fatalf("Refresh() error = %v, want fetch wrap", err)
	}
}

func TestToExpenseSkipsMalformedDates(t *testing.T) {
	svc := NewExpenseIngestService(nil, nil, nil, testUserID, core.Day{})
	shares := []feeds.SplitwiseShare{{UserID: testUserID, OwedShare: "5.00", PaidShare: "0"}}

	for _, date := range []string{"garbage", "2023-13-45T00:00:00Z"} {
		row := feeds.SplitwiseExpense{ID: 1, Date: date, Description: "x", CurrencyCode: "GBP", Users: shares}
		if _, ok := svc.toExpense(context.Background(), row); ok {
			t.Errorf("toExpense() accepted date %q", date)
		}
	}
}
