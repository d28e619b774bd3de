package config

import (
	"time"

	"rtimcp/internal/kusto"
)

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	OBO     OBOConfig     `yaml:"obo"`
	Kusto   KustoConfig   `yaml:"kusto"`
	Logging LoggingConfig `yaml:"logging"`
}

const (
	// TransportStdio serves MCP over stdin and stdout.
	TransportStdio = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP = "http"
)

// ServerConfig selects and configures the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport,omitempty"` // stdio or http (default: stdio)
	Host      string `yaml:"host,omitempty"`      // HTTP bind host (default: 127.0.0.1)
	Port      int    `yaml:"port,omitempty"`      // HTTP port (default: 3000)
	Path      string `yaml:"path,omitempty"`      // MCP endpoint path (default: /mcp)
	Stateless bool   `yaml:"stateless,omitempty"` // Stateless streamable HTTP sessions
}

// OBOConfig configures the on-behalf-of token exchange in front of the
// Kusto connections.
type OBOConfig struct {
	Enabled                 bool   `yaml:"enabled,omitempty"`
	TenantID                string `yaml:"tenantId,omitempty"`
	EntraAppClientID        string `yaml:"entraAppClientId,omitempty"`
	ManagedIdentityClientID string `yaml:"managedIdentityClientId,omitempty"`
	KustoAudience           string `yaml:"kustoAudience,omitempty"`
}

// KustoConfig configures the cluster allowlist and Kusto call defaults.
type KustoConfig struct {
	// ServiceURI is the default cluster, listed first among known services.
	ServiceURI      string `yaml:"serviceUri,omitempty"`
	DefaultDatabase string `yaml:"defaultDatabase,omitempty"`

	KnownServices        []kusto.Endpoint `yaml:"knownServices,omitempty"`
	AllowUnknownServices bool             `yaml:"allowUnknownServices"`
	EagerConnect         bool             `yaml:"eagerConnect,omitempty"`
	InteractiveLogin     bool             `yaml:"interactiveLogin,omitempty"`

	TimeoutSeconds    int    `yaml:"timeoutSeconds,omitempty"`
	EmbeddingEndpoint string `yaml:"embeddingEndpoint,omitempty"`
	ResponseFormat    string `yaml:"responseFormat,omitempty"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Endpoints returns the allowlist: the default service first, then the
// known services. Later entries win for the same URI.
func (k KustoConfig) Endpoints() []kusto.Endpoint {
	var endpoints []kusto.Endpoint
	if k.ServiceURI != "" {
		database := k.DefaultDatabase
		if database == "" {
			database = kusto.DefaultDatabaseName
		}
		endpoints = append(endpoints, kusto.Endpoint{
			URI:             k.ServiceURI,
			DefaultDatabase: database,
			Description:     "Default",
		})
	}
	return append(endpoints, k.KnownServices...)
}

// FallbackDatabase is the database used for clusters without a configured
// default: the default service database, else NetDefaultDB.
func (k KustoConfig) FallbackDatabase() string {
	if k.ServiceURI != "" && k.DefaultDatabase != "" {
		return k.DefaultDatabase
	}
	return kusto.DefaultDatabaseName
}

// Timeout returns the server-side timeout, zero when unset.
func (k KustoConfig) Timeout() time.Duration {
	if k.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(k.TimeoutSeconds) * time.Second
}
