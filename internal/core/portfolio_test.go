package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

const testFund = "Global Index"

func testPrices() map[string][]PricePoint {
	return map[string][]PricePoint{
		testFund: {
			{Date: NewDay(2023, 1, 2), AdjClose: decimal.RequireFromString("10000")},
			{Date: NewDay(2023, 1, 9), AdjClose: decimal.RequireFromString("11000")},
			{Date: NewDay(2023, 1, 16), AdjClose: decimal.RequireFromString("12100")},
		},
	}
}

func tx(date Day, cat TransactionCategory, fund, price string) PlatformTransaction {
	return PlatformTransaction{
		Account:  "ISA",
		Date:     date,
		Category: cat,
		Fund:     fund,
		Price:    decimal.RequireFromString(price),
	}
}

func TestReplayPlatform(t *testing.T) {
	txs := []PlatformTransaction{
		tx(NewDay(2023, 1, 2), TransferIn, "", "1000"),
		tx(NewDay(2023, 1, 2), Buy, testFund, "500"),
		tx(NewDay(2023, 1, 9), FeeService, "", "10"),
		tx(NewDay(2023, 1, 16), Sell, testFund, "242"),
		tx(NewDay(2023, 1, 16), Dividend, "", "5"),
	}

	history, err := ReplayPlatform("ISA", txs, testPrices())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	wantCash := []struct {
		date  Day
		value string
	}{
		{NewDay(2023, 1, 1), "0"},
		{NewDay(2023, 1, 2), "500"},
		{NewDay(2023, 1, 9), "490"},
		{NewDay(2023, 1, 16), "737"},
	}
	if len(history.Cash) != len(wantCash) {
		t.Fatalf("expected %d cash points, got %d: %v", len(wantCash), len(history.Cash), history.Cash)
	}
	for i, w := range wantCash {
		got := history.Cash[i]
		if !got.Date.Equal(w.date) || !got.Value.Equal(decimal.RequireFromString(w.value)) {
			t.Fatalf("cash point %d expected %s=%s, got %s=%s", i, w.date, w.value, got.Date, got.Value)
		}
	}

	series := history.Funds[testFund]
	if len(series) != 3 {
		t.Fatalf("expected 3 fund points, got %d", len(series))
	}
	wantFund := []struct {
		unit, shares, invested, value, ret string
	}{
		{"100", "5", "500", "500", "0"},
		{"110", "5", "500", "550", "0.1"},
		{"121", "3", "300", "363", "0.21"},
	}
	for i, w := range wantFund {
		got := series[i]
		for name, pair := range map[string][2]decimal.Decimal{
			"unit price": {got.UnitPrice, decimal.RequireFromString(w.unit)},
			"shares":     {got.Shares, decimal.RequireFromString(w.shares)},
			"invested":   {got.Invested, decimal.RequireFromString(w.invested)},
			"value":      {got.Value, decimal.RequireFromString(w.value)},
			"return":     {got.Return, decimal.RequireFromString(w.ret)},
		} {
			if !pair[0].Equal(pair[1]) {
				t.Fatalf("fund point %d %s expected %s, got %s", i, name, pair[1], pair[0])
			}
		}
	}

	wantTotal := []string{"0", "1000", "1040", "1100"}
	if len(history.Total) != len(wantTotal) {
		t.Fatalf("expected %d total points, got %d", len(wantTotal), len(history.Total))
	}
	for i, w := range wantTotal {
		if !history.Total[i].Value.Equal(decimal.RequireFromString(w)) {
			t.Fatalf("total point %d expected %s, got %s", i, w, history.Total[i].Value)
		}
	}
}

func TestReplayPlatformCorrectedShares(t *testing.T) {
	buy := tx(NewDay(2023, 1, 2), Buy, testFund, "500")
	buy.CorrectedShares = decimal.RequireFromString("4.9")
	txs := []PlatformTransaction{
		tx(NewDay(2023, 1, 2), TransferIn, "", "1000"),
		buy,
	}
	history, err := ReplayPlatform("ISA", txs, testPrices())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	got := history.Funds[testFund][0]
	if !got.Shares.Equal(decimal.RequireFromString("4.9")) {
		t.Fatalf("expected broker-corrected 4.9 shares, got %s", got.Shares)
	}
	if !got.Value.Equal(decimal.RequireFromString("490")) {
		t.Fatalf("expected value 490, got %s", got.Value)
	}
}

func TestReplayPlatformUsesClosestEarlierPrice(t *testing.T) {
	// Buying on a non-trading day picks up the previous close.
	txs := []PlatformTransaction{
		tx(NewDay(2023, 1, 2), TransferIn, "", "1000"),
		tx(NewDay(2023, 1, 7), Buy, testFund, "220"),
	}
	history, err := ReplayPlatform("ISA", txs, testPrices())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	var jan7 FundPoint
	for _, fp := range history.Funds[testFund] {
		if fp.Date.Equal(NewDay(2023, 1, 7)) {
			jan7 = fp
		}
	}
	if !jan7.UnitPrice.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected unit price 100 from Jan 2 close, got %s", jan7.UnitPrice)
	}
	if !jan7.Shares.Equal(decimal.RequireFromString("2.2")) {
		t.Fatalf("expected 2.2 shares, got %s", jan7.Shares)
	}
}

func TestReplayPlatformOversell(t *testing.T) {
	txs := []PlatformTransaction{
		tx(NewDay(2023, 1, 2), TransferIn, "", "1000"),
		tx(NewDay(2023, 1, 2), Buy, testFund, "100"),
		tx(NewDay(2023, 1, 9), Sell, testFund, "550"),
	}
	_, err := ReplayPlatform("ISA", txs, testPrices())
	if !errors.Is(err, ErrOversoldFund) {
		t.Fatalf("expected ErrOversoldFund, got %v", err)
	}
}

func TestReplayPlatformNoPriceHistory(t *testing.T) {
	txs := []PlatformTransaction{
		tx(NewDay(2022, 12, 1), Buy, testFund, "100"),
	}
	_, err := ReplayPlatform("ISA", txs, testPrices())
	if !errors.Is(err, ErrNoPriceHistory) {
		t.Fatalf("expected ErrNoPriceHistory, got %v", err)
	}
}

func TestReplayPlatformUnsortedInput(t *testing.T) {
	txs := []PlatformTransaction{
		tx(NewDay(2023, 1, 9), FeeService, "", "10"),
		tx(NewDay(2023, 1, 2), TransferIn, "", "1000"),
	}
	history, err := ReplayPlatform("ISA", txs, testPrices())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	last := history.Cash[len(history.Cash)-1]
	if !last.Value.Equal(decimal.RequireFromString("990")) {
		t.Fatalf("expected final cash 990, got %s", last.Value)
	}
}

func TestReplayPlatformEmpty(t *testing.T) {
	history, err := ReplayPlatform("ISA", nil, testPrices())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(history.Cash) != 0 || len(history.Funds) != 0 || len(history.Total) != 0 {
		t.Fatalf("expected empty history, got %+v", history)
	}
}
