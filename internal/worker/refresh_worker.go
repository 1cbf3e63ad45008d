// Package worker runs refreshes on demand from the message queue, plus a
// periodic pass that backs up lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smartfinances/internal/amqp"
	"smartfinances/internal/core"
	"smartfinances/internal/services"
	"smartfinances/internal/storage"
)

// ErrRefreshBusy reports that the requested scope is already refreshing.
var ErrRefreshBusy = errors.New("refresh already running")

type RefreshWorker struct {
	refresher *services.RefreshService
	storage   *storage.SQLiteRepository
	interval  time.Duration

	mu   sync.Mutex
	busy map[core.RefreshScope]bool
}

func NewRefreshWorker(refresher *services.RefreshService, repo *storage.SQLiteRepository, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		storage:   repo,
		interval:  interval,
		busy:      map[core.RefreshScope]bool{},
	}
}

// HandleRefreshRequest runs the refresh a queue message asks for. A scope
// already mid-refresh is dropped rather than requeued: the running refresh
// delivers the same data the duplicate would.
func (w *RefreshWorker) HandleRefreshRequest(ctx context.Context, msg *amqp.RefreshRequestMessage) error {
	scope, err := msg.RefreshScope()
	if err != nil {
		return err
	}

	err = w.runOnce(ctx, scope)
	if errors.Is(err, ErrRefreshBusy) {
		slog.WarnContext(ctx, "Refresh already running, dropping request",
			"scope", scope, "requested_by", msg.RequestedBy)
		return nil
	}
	return err
}

// RunPeriodicRefresh refreshes everything on the configured interval until
// ctx ends, so a lost queue message delays data by at most one interval.
func (w *RefreshWorker) RunPeriodicRefresh(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	slog.InfoContext(ctx, "Periodic refresh started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Periodic refresh stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			err := w.runOnce(ctx, core.RefreshAll)
			if err != nil && !errors.Is(err, ErrRefreshBusy) {
				slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
			}
		}
	}
}

// StartupRefreshCheck refreshes immediately when the stored data is older
// than one interval, covering downtime while no worker was running.
func (w *RefreshWorker) StartupRefreshCheck(ctx context.Context) error {
	last, err := w.storage.LastSuccessfulRefreshAt(ctx)
	if err != nil {
		return fmt.Errorf("check last refresh: %w", err)
	}
	if !last.IsZero() && time.Since(last) < w.interval {
		slog.InfoContext(ctx, "Data is fresh, skipping startup refresh", "last_refresh", last)
		return nil
	}

	slog.InfoContext(ctx, "Data is stale on startup, refreshing", "last_refresh", last)
	return w.runOnce(ctx, core.RefreshAll)
}

func (w *RefreshWorker) runOnce(ctx context.Context, scope core.RefreshScope) error {
	if !w.acquire(scope) {
		return ErrRefreshBusy
	}
	defer w.release(scope)
	return w.refresher.Refresh(ctx, scope)
}

func (w *RefreshWorker) acquire(scope core.RefreshScope) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy[scope] {
		return false
	}
	w.busy[scope] = true
	return true
}

func (w *RefreshWorker) release(scope core.RefreshScope) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.busy, scope)
}
