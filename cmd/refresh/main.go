// Command refresh runs one refresh pass and exits, for cron jobs and
// shell use. The exit code reflects the run outcome.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"smartfinances/internal/backend"
	"smartfinances/internal/cli"
	"smartfinances/internal/core"
	"smartfinances/internal/log"
)

func main() {
	scopeFlag := flag.String("scope", "all", "what to refresh: all, expenses, prices, inflation or portfolio")
	timeoutFlag := flag.Duration("timeout", 15*time.Minute, "abort the refresh after this long")
	flag.Parse()

	scope, err := core.ParseRefreshScope(*scopeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -scope %q: %v\n", *scopeFlag, err)
		os.Exit(2)
	}

	rt := cli.Bootstrap(log.ComponentWorker)
	if err := run(rt, scope, *timeoutFlag); err != nil {
		rt.Logger.Error("Refresh failed", log.FieldScope, scope.String(), log.FieldError, err)
		os.Exit(1)
	}
	rt.Logger.Info("Refresh complete", log.FieldScope, scope.String())
}

func run(rt cli.Runtime, scope core.RefreshScope, timeout time.Duration) error {
	ctx, stop := cli.SignalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// One-shot runs never need the broker.
	cfg := rt.Backend
	cfg.AMQPURL = ""

	result, err := backend.NewFactory(rt.Logger).CreateBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer result.Cleanup()

	return result.Refresher.Refresh(ctx, scope)
}
