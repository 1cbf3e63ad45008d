package google

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestParseTransactions(t *testing.T) {
	values := [][]any{
		{"Date", "Category", "Fund", "Price", "Corrected shares"},
		{"2021-03-20", "Buy", "Global All Cap", "£1,000.00", "9.8123"},
		{"2021-03-15", "Transfer in", "", "1500", ""},
		{"2021-04-01", "Fee - service", "", "2.25"},
		{"2021-04-10", "Buy", "Global All Cap", "250", ""},
		{"", "", "", ""},
		{"2021-04-12", "Transfer in", "", "0"},
	}

	got, err := ParseTransactions(values)
	if err != nil {
		t.Fatalf("ParseTransactions failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 transactions, got %d: %+v", len(got), got)
	}

	// Output is sorted by date regardless of sheet order.
	if got[0].Date.String() != "2021-03-15" || got[0].Category != core.TransferIn {
		t.Errorf("unexpected first transaction: %+v", got[0])
	}
	if !got[0].Price.Equal(dec(t, "1500")) {
		t.Errorf("expected price 1500, got %s", got[0].Price)
	}

	buy := got[1]
	if buy.Category != core.Buy || buy.Fund != "Global All Cap" {
		t.Errorf("unexpected buy row: %+v", buy)
	}
	if !buy.Price.Equal(dec(t, "1000")) {
		t.Errorf("expected formatted price 1000, got %s", buy.Price)
	}
	if !buy.CorrectedShares.Equal(dec(t, "9.8123")) {
		t.Errorf("expected corrected shares 9.8123, got %s", buy.CorrectedShares)
	}

	if got[2].Category != core.FeeService || !got[2].Price.Equal(dec(t, "2.25")) {
		t.Errorf("unexpected fee row: %+v", got[2])
	}
	if !got[3].CorrectedShares.IsZero() {
		t.Errorf("expected zero corrected shares when cell is blank, got %s", got[3].CorrectedShares)
	}
}

func TestParseTransactionsUKDates(t *testing.T) {
	values := [][]any{
		{"Date", "Category", "Fund", "Price"},
		{"15/03/2021", "Transfer in", "", "100"},
	}

	got, err := ParseTransactions(values)
	if err != nil {
		t.Fatalf("ParseTransactions failed: %v", err)
	}
	if len(got) != 1 || got[0].Date.String() != "2021-03-15" {
		t.Fatalf("unexpected transactions: %+v", got)
	}
}

func TestParseTransactionsHeaderErrors(t *testing.T) {
	_, err := ParseTransactions([][]any{{"Date", "Category", "Amount"}})
	if err == nil {
		t.Fatal("expected a header error")
	}
	if !strings.Contains(err.Error(), "Fund") || !strings.Contains(err.Error(), "Price") {
		t.Errorf("expected error to name the missing columns, got %q", err.Error())
	}

	if _, err := ParseTransactions(nil); err == nil {
		t.Fatal("expected an error for an empty sheet")
	}
}

func TestParseTransactionsHeaderOnly(t *testing.T) {
	got, err := ParseTransactions([][]any{{"Date", "Category", "Fund", "Price", "Corrected shares"}})
	if err != nil {
		t.Fatalf("ParseTransactions failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no transactions, got %+v", got)
	}
}

func TestParseTransactionsRowErrors(t *testing.T) {
	tests := []struct {
		name    string
		row     []any
		wantErr error
	}{
		{
			name:    "unknown category",
			row:     []any{"2021-03-15", "Withdrawal", "", "100"},
			wantErr: core.ErrUnknownCategory,
		},
		{
			name:    "buy without fund",
			row:     []any{"2021-03-15", "Buy", "", "100"},
			wantErr: core.ErrMissingFund,
		},
		{
			name:    "negative price",
			row:     []any{"2021-03-15", "Transfer in", "", "-100"},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "bad date",
			row:     []any{"2021-13-45", "Transfer in", "", "100"},
			wantErr: core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := [][]any{{"Date", "Category", "Fund", "Price"}, tt.row}
			_, err := ParseTransactions(values)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(err.Error(), "row 2") {
				t.Errorf("expected error to carry the row number, got %q", err.Error())
			}
		})
	}
}
