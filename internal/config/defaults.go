package config

import (
	"rtimcp/internal/codec"
	"rtimcp/internal/oauth"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 3000
	DefaultPath = "/mcp"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Transport: TransportStdio,
			Host:      DefaultHost,
			Port:      DefaultPort,
			Path:      DefaultPath,
		},
		OBO: OBOConfig{
			TenantID:      oauth.DefaultTenantID,
			KustoAudience: oauth.DefaultAudience,
		},
		Kusto: KustoConfig{
			AllowUnknownServices: true,
			ResponseFormat:       string(codec.FormatColumnar),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
