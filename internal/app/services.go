package app

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"rtimcp/internal/codec"
	"rtimcp/internal/config"
	"rtimcp/internal/kusto"
	"rtimcp/internal/tools"
	"rtimcp/pkg/logging"
)

// ServerName is the MCP implementation name reported during initialize.
const ServerName = "fabric-rti-mcp-server"

// Services holds all initialized services used by the application.
type Services struct {
	// Registry caches one Kusto connection per cluster and enforces the allowlist.
	Registry *kusto.Registry

	// Kusto runs the tool operations against the registry.
	Kusto *kusto.Service

	// Tools exposes the Kusto operations as MCP tools.
	Tools *tools.Provider

	// MCPServer is the protocol server shared by every transport.
	MCPServer *mcpserver.MCPServer
}

// InitializeServices creates the registry, the Kusto service and the MCP
// server with every tool registered. No connection is opened here.
func InitializeServices(cfg *Config) (*Services, error) {
	settings := cfg.Settings

	format, err := codec.ParseFormat(settings.Kusto.ResponseFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid response format: %w", err)
	}

	registry := kusto.NewRegistry(kusto.RegistryOptions{
		KnownServices:        settings.Kusto.Endpoints(),
		AllowUnknownServices: settings.Kusto.AllowUnknownServices,
		FallbackDatabase:     settings.Kusto.FallbackDatabase(),
		InteractiveLogin:     settings.Kusto.InteractiveLogin,
		Factory:              cfg.ClientFactory,
	})

	service := kusto.NewService(registry, kusto.ServiceOptions{
		Version:           cfg.Version,
		Timeout:           settings.Kusto.Timeout(),
		EmbeddingEndpoint: settings.Kusto.EmbeddingEndpoint,
		Format:            format,
	})

	mcpSrv := mcpserver.NewMCPServer(ServerName, cfg.Version, mcpserver.WithToolCapabilities(false))
	provider := tools.NewProvider(service)
	provider.Register(mcpSrv)

	logging.Info("Bootstrap", "Registered %d tools (response format %s, %d known services)",
		len(provider.Tools()), format, len(registry.KnownServices()))

	return &Services{
		Registry:  registry,
		Kusto:     service,
		Tools:     provider,
		MCPServer: mcpSrv,
	}, nil
}

// reloadKnownServices applies a reloaded config file to the registry.
func (s *Services) reloadKnownServices(settings config.Config) {
	s.Registry.UpdateKnownServices(settings.Kusto.Endpoints(), settings.Kusto.AllowUnknownServices)
}
