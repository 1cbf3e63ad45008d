package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"smartfinances/internal/backend"
	"smartfinances/internal/cli"
	apphttp "smartfinances/internal/http"
	"smartfinances/internal/log"
)

func main() {
	rt := cli.Bootstrap(log.ComponentApp)
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

	// A typed nil must not reach the interface field, or the server would
	// call publish on a nil client instead of reporting no broker.
	var publisher apphttp.RefreshPublisher
	if result.Publisher != nil {
		publisher = result.Publisher
	}

	srv := apphttp.NewServer(":"+rt.App.Port, result.Data, publisher, apphttp.Options{
		BasicAuthUser:     rt.App.BasicAuthUser,
		BasicAuthPassword: rt.App.BasicAuthPassword,
		Logger:            logger,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Dashboard listening",
			"port", rt.App.Port,
			"backend", rt.Backend.Type.String(),
			"auth", rt.App.BasicAuthUser != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		logger.Error("Server failed", log.FieldError, err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", log.FieldError, err)
	}
	logger.Info("Server stopped")
}
