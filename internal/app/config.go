package app

import (
	"rtimcp/internal/config"
	"rtimcp/internal/kusto"
)

// Config holds the application configuration
type Config struct {
	// Settings is the fully layered configuration (defaults, file, env, flags).
	Settings config.Config

	// ConfigPath is the YAML file the settings were loaded from, if any.
	// When set, the known services allowlist is reloaded on change.
	ConfigPath string

	// Version is reported in the MCP handshake and in Kusto request properties.
	Version string

	// ClientFactory overrides how Kusto clients are built.
	ClientFactory kusto.ClientFactory
}

// NewConfig creates a new application configuration
func NewConfig(settings config.Config, configPath, version string) *Config {
	return &Config{
		Settings:   settings,
		ConfigPath: configPath,
		Version:    version,
	}
}
