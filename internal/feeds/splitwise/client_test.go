package splitwise

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
)

const expensesFixture = `{
  "expenses": [
    {
      "id": 111,
      "date": "2023-05-02T21:11:10Z",
      "description": "Groceries run",
      "payment": false,
      "deleted_at": null,
      "category": {"id": 12, "name": "Groceries"},
      "currency_code": "GBP",
      "group_id": null,
      "details": "Tesco paypal",
      "users": [
        {"user": {"id": 42}, "owed_share": "12.5", "paid_share": "25.0"},
        {"user": {"id": 7}, "owed_share": "12.5", "paid_share": "0.0"}
      ]
    },
    {
      "id": 112,
      "date": "2023-05-03T08:00:00Z",
      "description": "Settle up",
      "payment": true,
      "deleted_at": "2023-05-04T00:00:00Z",
      "category": {"id": 18, "name": "General"},
      "currency_code": "EUR",
      "group_id": 777,
      "details": null,
      "users": []
    }
  ]
}`

func TestFetchExpenses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3.0/get_expenses" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		q := r.URL.Query()
		if q.Get("dated_after") != "2023-01-01" || q.Get("dated_before") != "2023-12-31" {
			t.Errorf("unexpected window params: %v", q)
		}
		if q.Get("limit") != "0" {
			t.Errorf("expected limit=0, got %q", q.Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(expensesFixture))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Token: "test-token"})
	window := core.Window{From: core.NewDay(2023, 1, 1), To: core.NewDay(2023, 12, 31)}

	expenses, err := client.FetchExpenses(context.Background(), window)
	if err != nil {
		t.Fatalf("FetchExpenses failed: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(expenses))
	}

	first := expenses[0]
	if first.ID != 111 || first.Category != "Groceries" || first.CurrencyCode != "GBP" {
		t.Errorf("unexpected first expense: %+v", first)
	}
	if first.Payment || first.DeletedAt != nil || first.GroupID != nil {
		t.Errorf("expected live ungrouped expense, got %+v", first)
	}
	if first.Details == nil || *first.Details != "Tesco paypal" {
		t.Errorf("unexpected details: %v", first.Details)
	}
	if len(first.Users) != 2 || first.Users[0].UserID != 42 || first.Users[0].OwedShare != "12.5" || first.Users[0].PaidShare != "25.0" {
		t.Errorf("unexpected shares: %+v", first.Users)
	}

	second := expenses[1]
	if !second.Payment || second.DeletedAt == nil {
		t.Errorf("expected deleted payment row, got %+v", second)
	}
	if second.GroupID == nil || *second.GroupID != 777 {
		t.Errorf("unexpected group id: %v", second.GroupID)
	}
}

func TestFetchExpensesUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "Invalid API key"}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Token: "bad-token"})
	window := core.Window{From: core.NewDay(2023, 1, 1), To: core.NewDay(2023, 12, 31)}

	if _, err := client.FetchExpenses(context.Background(), window); !errors.Is(err, feeds.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFetchExpensesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"expenses": [`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Token: "test-token"})
	window := core.Window{From: core.NewDay(2023, 1, 1), To: core.NewDay(2023, 12, 31)}

	if _, err := client.FetchExpenses(context.Background(), window); err == nil {
		t.Fatal("expected a decode error")
	}
}
