// Package app bootstraps and runs the Fabric RTI MCP server.
//
// # Components
//
//   - Config (config.go): resolved settings plus the config file path and version
//   - Services (services.go): the Kusto registry, the tool service and the MCP server
//   - Application (bootstrap.go): ties the services to a transport and runs them
//   - Modes (modes.go): the stdio and streamable HTTP run loops
//
// # Lifecycle
//
// NewApplication builds every service up front without touching the network.
// Run optionally connects to every known service, starts the config file
// watcher and then blocks in the selected transport until ctx is cancelled
// or the process receives SIGINT or SIGTERM. Cached Kusto clients are closed
// on the way out.
//
// Example:
//
//	cfg := app.NewConfig(settings, "/etc/rtimcp/config.yaml", version)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Hot Reload
//
// When a config file path is set, the known services allowlist follows the
// file: every valid save replaces the allowlist in place. Transport and
// authentication settings are read once at startup.
package app
