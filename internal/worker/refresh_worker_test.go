package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"smartfinances/internal/amqp"
	"smartfinances/internal/core"
	"smartfinances/internal/feeds"
	feedsmem "smartfinances/internal/feeds/memory"
	"smartfinances/internal/services"
	sheetsmem "smartfinances/internal/sheets/memory"
	"smartfinances/internal/storage"
)

func newTestWorker(t *testing.T, interval time.Duration) (*RefreshWorker, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	provider := feedsmem.New()
	start := core.NewDay(core.Today().Year(), 1, 1)
	rates := services.NewRateService(repo, provider, "GBP")
	expenses := services.NewExpenseIngestService(repo, provider, rates, 1, start)
	prices := services.NewPriceService(repo, feeds.PriceSources{core.SourceYahoo: provider}, nil)
	inflation := services.NewInflationService(repo, provider, start)
	portfolio := services.NewPortfolioService(repo, sheetsmem.New(), nil, nil)
	refresher := services.NewRefreshService(repo, expenses, prices, inflation, portfolio)

	return NewRefreshWorker(refresher, repo, interval), repo
}

func TestHandleRefreshRequest(t *testing.T) {
	w, repo := newTestWorker(t, time.Hour)

	msg := amqp.NewRefreshRequestMessage(core.RefreshExpenses, "test")
	if err := w.HandleRefreshRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleRefreshRequest() error = %v", err)
	}

	run, err := repo.LastRefreshRun(context.Background())
	if err != nil {
		t.Fatalf("LastRefreshRun() error = %v", err)
	}
	if run == nil || run.Scope != "expenses" || run.Status != storage.RunStatusOK {
		t.Errorf("run = %+v, want ok expenses run", run)
	}
}

func TestHandleRefreshRequestDropsWhileBusy(t *testing.T) {
	w, repo := newTestWorker(t, time.Hour)

	if !w.acquire(core.RefreshAll) {
		t.Fatal("acquire() failed on an idle worker")
	}

	// The scope is mid-refresh: the duplicate is dropped without error so
	// the delivery acks instead of requeueing forever.
	msg := amqp.NewRefreshRequestMessage(core.RefreshAll, "test")
	if err := w.HandleRefreshRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleRefreshRequest() while busy error = %v", err)
	}
	run, err := repo.LastRefreshRun(context.Background())
	if err != nil {
		t.Fatalf("LastRefreshRun() error = %v", err)
	}
	if run != nil {
		t.Errorf("busy scope still ran: %+v", run)
	}

	// Another scope is not blocked.
	other := amqp.NewRefreshRequestMessage(core.RefreshInflation, "test")
	if err := w.HandleRefreshRequest(context.Background(), other); err != nil {
		t.Fatalf("HandleRefreshRequest() for idle scope error = %v", err)
	}

	w.release(core.RefreshAll)
	if err := w.HandleRefreshRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleRefreshRequest() after release error = %v", err)
	}
	run, err = repo.LastRefreshRun(context.Background())
	if err != nil {
		t.Fatalf("LastRefreshRun() error = %v", err)
	}
	if run == nil || run.Scope != "all" {
		t.Errorf("run = %+v, want the released scope to run", run)
	}
}

func TestStartupRefreshCheck(t *testing.T) {
	w, repo := newTestWorker(t, time.Hour)

	// Nothing has ever refreshed: startup runs one.
	if err := w.StartupRefreshCheck(context.Background()); err != nil {
		t.Fatalf("StartupRefreshCheck() error = %v", err)
	}
	first, err := repo.LastRefreshRun(context.Background())
	if err != nil {
		t.Fatalf("LastRefreshRun() error = %v", err)
	}
	if first == nil {
		t.Fatal("startup check did not refresh stale data")
	}

	// Data is now fresh: a second check is a no-op.
	if err := w.StartupRefreshCheck(context.Background()); err != nil {
		t.Fatalf("second StartupRefreshCheck() error = %v", err)
	}
	second, err := repo.LastRefreshRun(context.Background())
	if err != nil {
		t.Fatalf("LastRefreshRun() error = %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Errorf("fresh data was refreshed again: first %+v, second %+v", first, second)
	}
}
