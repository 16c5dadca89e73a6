package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chatgate/internal/config"
	"chatgate/pkg/logging"
)

// Application represents the main application structure that bootstraps and runs chatgate.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: resolve configuration and credentials, initialize logging, wire services
//  2. Execution phase: serve HTTP until interrupted
type Application struct {
	config   *config.Config
	services *Services
}

// NewApplication creates and initializes a new application instance.
// It fails when the resolved configuration does not validate; nothing after
// startup is fatal.
func NewApplication(ctx context.Context, appCfg *Config) (*Application, error) {
	cfg, provider, err := LoadSettings(ctx, appCfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		logging.Error("Bootstrap", err, "Invalid configuration")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	services, err := InitializeServices(ctx, cfg, provider)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Config returns the resolved configuration.
func (a *Application) Config() *config.Config {
	return a.config
}

// Run serves until ctx is cancelled or the process receives SIGINT or SIGTERM.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if err := a.services.Close(); err != nil {
			logging.Error("Bootstrap", err, "Failed to close session store")
		}
	}()

	return a.services.Server.ListenAndServe(ctx)
}
