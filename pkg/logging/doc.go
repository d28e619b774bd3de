// Package logging provides subsystem-tagged structured logging for rtimcp.
//
// The package wraps Go's log/slog with printf-style helpers so that every
// entry carries a subsystem attribute:
//
//	logging.Init(logging.LevelInfo, logging.FormatText, os.Stderr)
//
//	logging.Info("Bootstrap", "Starting %s", name)
//	logging.Warn("AuthGate", "Token payload could not be decoded")
//	logging.Error("Kusto", err, "Query failed (correlation ID: %s)", id)
//
// # Output
//
// Logs must go to stderr when the server runs with the stdio transport,
// because stdout carries MCP protocol frames.
//
// # Credentials
//
// Bearer tokens are never logged verbatim. Use TruncateToken to keep a short
// prefix for correlation.
//
// # Subsystems
//
//   - Bootstrap: process startup and shutdown
//   - Config: configuration loading and reloads
//   - AuthGate: inbound request authentication
//   - OBO: on-behalf-of token exchange
//   - Registry: Kusto connection cache
//   - Kusto: query and command execution
//   - Tools: MCP tool handlers
//   - Server: HTTP and stdio transports
package logging
