package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"smartfinances/internal/core"
	"smartfinances/internal/storage"
)

// RefreshService coordinates the ingest pipelines and records every run in
// the refresh audit trail.
type RefreshService struct {
	storage   *storage.SQLiteRepository
	expenses  *ExpenseIngestService
	prices    *PriceService
	inflation *InflationService
	portfolio *PortfolioService
}

func NewRefreshService(repo *storage.SQLiteRepository, expenses *ExpenseIngestService, prices *PriceService, inflation *InflationService, portfolio *PortfolioService) *RefreshService {
	return &RefreshService{
		storage:   repo,
		expenses:  expenses,
		prices:    prices,
		inflation: inflation,
		portfolio: portfolio,
	}
}

// Refresh runs the pipelines selected by scope and records the outcome as a
// refresh run. Branches fail independently: the returned error joins every
// failure while successful branches keep their committed data.
func (s *RefreshService) Refresh(ctx context.Context, scope core.RefreshScope) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	runID, err := s.storage.StartRefreshRun(ctx, scope.String())
	if err != nil {
		return fmt.Errorf("start refresh run: %w", err)
	}
	started := time.Now()
	slog.InfoContext(ctx, "Refresh started", "run_id", runID, "scope", scope)

	runErr := s.run(ctx, scope)

	status, detail := storage.RunStatusOK, ""
	if runErr != nil {
		status, detail = storage.RunStatusError, runErr.Error()
	}
	// The run row must close even when the refresh context is already
	// canceled, or the audit trail reports a run as running forever.
	if err := s.storage.FinishRefreshRun(context.WithoutCancel(ctx), runID, status, detail); err != nil {
		slog.ErrorContext(ctx, "Recording refresh run failed", "run_id", runID, "error", err)
	}

	elapsed := time.Since(started).Round(time.Millisecond)
	if runErr != nil {
		slog.ErrorContext(ctx, "Refresh failed",
			"run_id", runID, "scope", scope, "elapsed", elapsed, "error", runErr)
		return runErr
	}
	slog.InfoContext(ctx, "Refresh finished", "run_id", runID, "scope", scope, "elapsed", elapsed)
	return nil
}

func (s *RefreshService) run(ctx context.Context, scope core.RefreshScope) error {
	switch scope {
	case core.RefreshExpenses:
		_, err := s.expenses.Refresh(ctx)
		return wrapBranch("expenses", err)
	case core.RefreshPrices:
		_, err := s.prices.Refresh(ctx)
		return wrapBranch("prices", err)
	case core.RefreshInflation:
		_, err := s.inflation.Refresh(ctx)
		return wrapBranch("inflation", err)
	case core.RefreshPortfolio:
		return wrapBranch("portfolio", s.portfolio.Refresh(ctx))
	default:
		return s.runAll(ctx)
	}
}

// runAll fans the pipelines out over three branches. Expenses and inflation
// are independent; the portfolio replay reads the prices the price branch
// just stored, so those two run in sequence on the third branch.
func (s *RefreshService) runAll(ctx context.Context) error {
	var (
		mu       sync.Mutex
		failures []error
	)
	record := func(name string, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		failures = append(failures, fmt.Errorf("%s: %w", name, err))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.expenses.Refresh(gctx)
		record("expenses", err)
		return nil
	})
	g.Go(func() error {
		_, err := s.inflation.Refresh(gctx)
		record("inflation", err)
		return nil
	})
	g.Go(func() error {
		if _, err := s.prices.Refresh(gctx); err != nil {
			record("prices", err)
			return nil
		}
		record("portfolio", s.portfolio.Refresh(gctx))
		return nil
	})
	_ = g.Wait()

	// Branch order is nondeterministic; sort so the recorded detail is not.
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Error() < failures[j].Error()
	})
	return errors.Join(failures...)
}

func wrapBranch(name string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
