// Package cli holds the startup boilerplate shared by the entry points:
// environment loading, logging, configuration and signal handling.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"smartfinances/internal/backend"
	"smartfinances/internal/config"
	"smartfinances/internal/log"
)

// Runtime is everything an entry point needs before it builds its backend.
type Runtime struct {
	Logger     *log.Logger
	App        *config.Config
	Parameters *config.Parameters
	Backend    backend.Config
}

// Bootstrap loads .env, installs a component logger as the process default
// and returns the validated configuration. Exits the process on any
// configuration problem, since nothing can run without one.
func Bootstrap(component string) Runtime {
	// .env is for local development; containers set the environment.
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: component})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	params, err := config.LoadParameters(cfg.ParametersFile)
	if err != nil {
		logger.Error("Loading parameters failed",
			log.FieldError, err, "path", cfg.ParametersFile)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg, params)
	if err != nil {
		logger.Error("Building backend configuration failed", log.FieldError, err)
		os.Exit(1)
	}

	return Runtime{
		Logger:     logger,
		App:        cfg,
		Parameters: params,
		Backend:    backendCfg,
	}
}

// SignalContext returns a context canceled by SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
