package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rtimcp/internal/config"
	"rtimcp/pkg/logging"
)

// Application represents the main application structure that bootstraps and
// runs the MCP server.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: build the registry, the Kusto service and the MCP server
//  2. Execution phase: serve the selected transport until shutdown
type Application struct {
	config   *Config
	services *Services
	watcher  *config.Watcher
}

// NewApplication creates a new application instance with the provided
// configuration. The settings must already be validated.
func NewApplication(cfg *Config) (*Application, error) {
	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Run executes the application
//
// Handles graceful shutdown via context cancellation and system signals.
// The method blocks until the transport stops.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logStartup()
	defer func() {
		if err := a.services.Registry.Close(); err != nil {
			logging.Warn("Bootstrap", "Closing Kusto clients: %v", err)
		}
	}()

	if a.config.Settings.Kusto.EagerConnect {
		if err := a.services.Registry.ConnectAll(ctx); err != nil {
			logging.Error("Bootstrap", err, "Eager connection to known services failed")
		}
	}

	if err := a.startWatcher(); err != nil {
		logging.Warn("Bootstrap", "Config hot reload disabled: %v", err)
	}
	defer a.stopWatcher()

	switch a.config.Settings.Server.Transport {
	case config.TransportHTTP:
		return runHTTPMode(ctx, a.config, a.services)
	default:
		return runStdioMode(ctx, a.services)
	}
}

func (a *Application) logStartup() {
	settings := a.config.Settings
	logging.Info("Bootstrap", "Starting Fabric RTI MCP server")
	logging.Info("Bootstrap", "Version: %s", a.config.Version)
	logging.Info("Bootstrap", "PID: %d", os.Getpid())
	logging.Info("Bootstrap", "Transport: %s", settings.Server.Transport)
	if settings.Server.Transport == config.TransportHTTP {
		logging.Info("Bootstrap", "Host: %s", settings.Server.Host)
		logging.Info("Bootstrap", "Port: %d", settings.Server.Port)
		logging.Info("Bootstrap", "Path: %s", settings.Server.Path)
		logging.Info("Bootstrap", "Stateless HTTP: %t", settings.Server.Stateless)
	}
	logging.Info("Bootstrap", "Use OBO flow: %t", settings.OBO.Enabled)

	if set := config.SetEnvVars(os.LookupEnv); len(set) > 0 {
		logging.Info("Bootstrap", "Environment overrides: %s", strings.Join(set, ", "))
	}
	if missing := settings.MissingOBOSettings(); len(missing) > 0 {
		logging.Warn("Bootstrap", "OBO flow enabled but not configured: %s", strings.Join(missing, ", "))
	}
}

func (a *Application) startWatcher() error {
	if a.config.ConfigPath == "" {
		return nil
	}
	w := config.NewWatcher(config.WatcherConfig{
		Path:     a.config.ConfigPath,
		OnChange: a.services.reloadKnownServices,
	})
	if err := w.Start(); err != nil {
		return err
	}
	a.watcher = w
	return nil
}

func (a *Application) stopWatcher() {
	if a.watcher == nil {
		return
	}
	if err := a.watcher.Stop(); err != nil {
		logging.Warn("Bootstrap", "Stopping config watcher: %v", err)
	}
}
