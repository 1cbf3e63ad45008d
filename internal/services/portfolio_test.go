package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"smartfinances/internal/core"
	sheetsmem "smartfinances/internal/sheets/memory"
	"smartfinances/internal/storage"
)

func newPortfolioFixture(t *testing.T) (*PortfolioService, *sheetsmem.Store, *storage.SQLiteRepository) {
	t.Helper()
	repo := newTestRepository(t)
	reader := sheetsmem.New()

	investments := []core.Investment{
		{Ticker: "VWRL.L", Name: "Global Equity", Source: core.SourceYahoo,
			StartDate: core.NewDay(2024, 1, 1), Account: "InvestCo"},
		{Ticker: "CSH2.L", Name: "Cash Fund", Source: core.SourceEODHD,
			StartDate: core.NewDay(2024, 1, 1), Account: "OtherCo"},
	}
	_, err := repo.InsertPrices(context.Background(), "VWRL.L", []core.PricePoint{
		{Date: core.NewDay(2024, 1, 2), AdjClose: dec(t, "500")},
		{Date: core.NewDay(2024, 1, 10), AdjClose: dec(t, "500")},
		{Date: core.NewDay(2024, 1, 15), AdjClose: dec(t, "550")},
	})
	if err != nil {
		t.Fatalf("InsertPrices() error = %v", err)
	}

	platformSheets := []PlatformSheet{
		{Account: "InvestCo", SpreadsheetID: "sheet-invest", ReadRange: "Transactions!A2:E"},
	}
	svc := NewPortfolioService(repo, reader, platformSheets, investments)
	return svc, reader, repo
}

func lastValue(values []storage.PortfolioValue, fund string) decimal.Decimal {
	var (
		latest core.Day
		out    decimal.Decimal
	)
	for _, v := range values {
		if v.Fund != fund {
			continue
		}
		if latest.IsZero() || v.Date.After(latest) {
			latest, out = v.Date, v.Value
		}
	}
	return out
}

func TestPortfolioRefreshReplaysLog(t *testing.T) {
	svc, reader, repo := newPortfolioFixture(t)
	reader.SetTransactions("sheet-invest", []core.PlatformTransaction{
		{Date: core.NewDay(2024, 1, 2), Category: core.TransferIn, Price: dec(t, "1000")},
		{Date: core.NewDay(2024, 1, 10), Category: core.Buy, Fund: "Global Equity", Price: dec(t, "500")},
	})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	txs, err := repo.ListPlatformTransactions(context.Background(), "InvestCo")
	if err != nil {
		t.Fatalf("ListPlatformTransactions() error = %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("staged %d transactions, want 2", len(txs))
	}
	if txs[0].Account != "InvestCo" {
		t.Errorf("account = %q, want stamped from the sheet binding", txs[0].Account)
	}

	values, err := repo.ListPortfolioValues(context.Background(), "InvestCo")
	if err != nil {
		t.Fatalf("ListPortfolioValues() error = %v", err)
	}
	// £1000 in, £500 bought at £5.00 a unit, priced last at £5.50:
	// cash 500, fund 100 shares worth 550, total 1050.
	if got := lastValue(values, core.CashFund); !got.Equal(dec(t, "500")) {
		t.Errorf("final cash = %s, want 500", got)
	}
	if got := lastValue(values, "Global Equity"); !got.Equal(dec(t, "550")) {
		t.Errorf("final fund value = %s, want 550", got)
	}
	if got := lastValue(values, core.TotalFund); !got.Equal(dec(t, "1050")) {
		t.Errorf("final total = %s, want 1050", got)
	}
}

func TestPortfolioRefreshEmptyLogClearsHistory(t *testing.T) {
	svc, reader, repo := newPortfolioFixture(t)
	reader.SetTransactions("sheet-invest", []core.PlatformTransaction{
		{Date: core.NewDay(2024, 1, 2), Category: core.TransferIn, Price: dec(t, "1000")},
	})
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	// The sheet was emptied; replaying it clears the stored series too.
	reader.SetTransactions("sheet-invest", nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() with empty log error = %v", err)
	}

	values, err := repo.ListPortfolioValues(context.Background(), "InvestCo")
	if err != nil {
		t.Fatalf("ListPortfolioValues() error = %v", err)
	}
	if len(values) != 0 {
		t.Errorf("kept %d stale value rows, want none", len(values))
	}
	txs, err := repo.ListPlatformTransactions(context.Background(), "InvestCo")
	if err != nil {
		t.Fatalf("ListPlatformTransactions() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("kept %d stale transactions, want none", len(txs))
	}
}

func TestPortfolioRefreshReplayFailureKeepsHistory(t *testing.T) {
	svc, reader, repo := newPortfolioFixture(t)
	reader.SetTransactions("sheet-invest", []core.PlatformTransaction{
		{Date: core.NewDay(2024, 1, 2), Category: core.TransferIn, Price: dec(t, "1000")},
		{Date: core.NewDay(2024, 1, 10), Category: core.Buy, Fund: "Global Equity", Price: dec(t, "500")},
	})
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	// A bad edit turns the buy into an oversell. The refresh fails and the
	// last good series stays in place.
	reader.SetTransactions("sheet-invest", []core.PlatformTransaction{
		{Date: core.NewDay(2024, 1, 2), Category: core.TransferIn, Price: dec(t, "1000")},
		{Date: core.NewDay(2024, 1, 10), Category: core.Sell, Fund: "Global Equity", Price: dec(t, "200")},
	})
	err := svc.Refresh(context.Background())
	if !errors.Is(err, core.ErrOversoldFund) {
		t.Fatalf("Refresh() error = %v, want ErrOversoldFund", err)
	}
	if !strings.Contains(err.Error(), "InvestCo: replay transactions") {
		t.Errorf("error %q does not name the account and stage", err)
	}

	txs, err := repo.ListPlatformTransactions(context.Background(), "InvestCo")
	if err != nil {
		t.Fatalf("ListPlatformTransactions() error = %v", err)
	}
	if len(txs) != 2 || txs[1].Category != core.Buy {
		t.Errorf("staged transactions changed after failed replay: %+v", txs)
	}
	values, err := repo.ListPortfolioValues(context.Background(), "InvestCo")
	if err != nil {
		t.Fatalf("ListPortfolioValues() error = %v", err)
	}
	if got := lastValue(values, core.TotalFund); !got.Equal(dec(t, "1050")) {
		t.Errorf("final total after failed replay = %s, want 1050", got)
	}
}

func TestPortfolioRefreshReaderError(t *testing.T) {
	svc, reader, _ := newPortfolioFixture(t)
	reader.Fail(errors.New("sheets api down"))

	err := svc.Refresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "InvestCo: read platform log") {
		t.Fatalf("Refresh() error = %v, want read wrap with account", err)
	}
}
