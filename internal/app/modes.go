package app

import (
	"context"

	"rtimcp/internal/oauth"
	"rtimcp/internal/server"
)

// runStdioMode serves MCP over stdin and stdout. Logs go to stderr so the
// protocol stream stays clean.
func runStdioMode(ctx context.Context, services *Services) error {
	return server.ServeStdio(ctx, services.MCPServer)
}

// runHTTPMode serves streamable HTTP behind the auth gate until ctx is done.
func runHTTPMode(ctx context.Context, cfg *Config, services *Services) error {
	return server.NewHTTPServer(services.MCPServer, httpOptions(cfg)).Start(ctx)
}

// httpOptions derives the transport options. The auth gate is always on for
// HTTP; the OBO exchanger is only attached when the flow is enabled.
func httpOptions(cfg *Config) server.HTTPOptions {
	settings := cfg.Settings

	gateOpts := server.GateOptions{
		Audience:    settings.OBO.KustoAudience,
		BypassPaths: []string{server.HealthPath, server.MetricsPath},
	}
	if settings.OBO.Enabled {
		gateOpts.Exchanger = oauth.NewExchanger(settings.OBOExchangeConfig())
	}

	return server.HTTPOptions{
		Host:      settings.Server.Host,
		Port:      settings.Server.Port,
		Path:      settings.Server.Path,
		Stateless: settings.Server.Stateless,
		Gate:      server.NewGate(gateOpts),
	}
}
