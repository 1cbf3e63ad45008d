package main

import (
	"context"
	"errors"
	"os"

	"smartfinances/internal/backend"
	"smartfinances/internal/cli"
	"smartfinances/internal/log"
	"smartfinances/internal/worker"
)

func main() {
	rt := cli.Bootstrap(log.ComponentWorker)
	logger := rt.Logger

	ctx, stop := cli.SignalContext()
	defer stop()

	result, err := backend.NewFactory(logger).CreateBackend(ctx, rt.Backend)
	if err != nil {
		logger.Error("Backend initialization failed", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	// The queue is this process's reason to exist. A configured broker
	// that cannot be reached at startup is fatal; the supervisor restarts
	// us until it comes back.
	if rt.Backend.AMQPURL != "" && result.Publisher == nil {
		logger.Error("Broker is configured but unreachable", "url", rt.Backend.AMQPURL)
		os.Exit(1)
	}

	refreshWorker := worker.NewRefreshWorker(result.Refresher, result.Storage, rt.App.RefreshInterval)

	if err := refreshWorker.StartupRefreshCheck(ctx); err != nil && !errors.Is(err, context.Canceled) {
		// Stale data is better than no worker; the periodic pass retries.
		logger.Error("Startup refresh failed", log.FieldError, err)
	}

	if result.Publisher != nil {
		go func() {
			err := result.Publisher.ConsumeRefreshRequests(ctx, refreshWorker.HandleRefreshRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Refresh consumer stopped", log.FieldError, err)
			}
			stop()
		}()
	} else {
		logger.Info("No broker configured, running periodic refreshes only")
	}

	logger.Info("Worker started",
		"interval", rt.App.RefreshInterval.String(),
		"queue", result.Publisher != nil)
	refreshWorker.RunPeriodicRefresh(ctx)

	logger.Info("Worker stopped")
}
