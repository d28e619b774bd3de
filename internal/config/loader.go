package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"rtimcp/internal/kusto"
	"rtimcp/pkg/logging"
)

// Environment variable names.
const (
	EnvTransport      = "FABRIC_RTI_TRANSPORT"
	EnvHTTPHost       = "FABRIC_RTI_HTTP_HOST"
	EnvHTTPPort       = "FABRIC_RTI_HTTP_PORT"
	EnvAzurePort      = "PORT"
	EnvFunctionsPort  = "FUNCTIONS_CUSTOMHANDLER_PORT"
	EnvHTTPPath       = "FABRIC_RTI_HTTP_PATH"
	EnvStatelessHTTP  = "FABRIC_RTI_STATELESS_HTTP"
	EnvUseOBOFlow     = "USE_OBO_FLOW"
	EnvOBOTenantID    = "FABRIC_RTI_MCP_AZURE_TENANT_ID"
	EnvOBOAppClientID = "FABRIC_RTI_MCP_ENTRA_APP_CLIENT_ID"
	EnvOBOUMIClientID = "FABRIC_RTI_MCP_USER_MANAGED_IDENTITY_CLIENT_ID"
	EnvKustoAudience  = "FABRIC_RTI_MCP_KUSTO_AUDIENCE"

	EnvKustoServiceURI    = "KUSTO_SERVICE_URI"
	EnvKustoDefaultDB     = "KUSTO_SERVICE_DEFAULT_DB"
	EnvKustoKnownServices = "KUSTO_KNOWN_SERVICES"
	EnvKustoEagerConnect  = "KUSTO_EAGER_CONNECT"
	EnvKustoAllowUnknown  = "KUSTO_ALLOW_UNKNOWN_SERVICES"
	EnvKustoTimeout       = "FABRIC_RTI_KUSTO_TIMEOUT"
	EnvEmbeddingEndpoint  = "AZ_OPENAI_EMBEDDING_ENDPOINT"
	EnvResponseFormat     = "FABRIC_RTI_RESPONSE_FORMAT"
	EnvLogLevel           = "FABRIC_RTI_LOG_LEVEL"
	EnvLogFormat          = "FABRIC_RTI_LOG_FORMAT"
)

// LookupFunc reads an environment variable.
type LookupFunc func(name string) (string, bool)

// Load returns the defaults overlaid with the YAML file at path, if any,
// and then with the process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	ApplyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ConfigurationError{
				FilePath:  path,
				ErrorType: ErrorTypeIO,
				Message:   "config file not found",
			}
		}
		return &ConfigurationError{FilePath: path, ErrorType: ErrorTypeIO, Message: err.Error()}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		configErr := &ConfigurationError{
			FilePath:  path,
			ErrorType: ErrorTypeParse,
			Message:   "invalid YAML",
			Details:   err.Error(),
		}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
			configErr.Details = strings.Join(typeErr.Errors, "; ")
		}
		return configErr
	}
	logging.Info("Config", "Loaded configuration from %s", path)
	return nil
}

// ApplyEnv overlays environment variables onto cfg. Unparsable numbers and
// known service lists are logged and ignored.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	if v, ok := lookup(EnvTransport); ok && v != "" {
		cfg.Server.Transport = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvHTTPHost); ok && v != "" {
		cfg.Server.Host = v
	}
	// Hosting platforms inject their own port variable, which wins.
	for _, name := range []string{EnvHTTPPort, EnvFunctionsPort, EnvAzurePort} {
		if v, ok := lookup(name); ok && v != "" {
			if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				cfg.Server.Port = port
			} else {
				logging.Warn("Config", "Ignoring %s=%q: not a number", name, v)
			}
		}
	}
	// A platform assigned port means the server is hosted, so serve HTTP.
	if v, ok := lookup(EnvAzurePort); ok && v != "" {
		cfg.Server.Transport = TransportHTTP
	}
	if v, ok := lookup(EnvHTTPPath); ok && v != "" {
		cfg.Server.Path = v
	}
	envBool(lookup, EnvStatelessHTTP, &cfg.Server.Stateless)

	envBool(lookup, EnvUseOBOFlow, &cfg.OBO.Enabled)
	envString(lookup, EnvOBOTenantID, &cfg.OBO.TenantID)
	envString(lookup, EnvOBOAppClientID, &cfg.OBO.EntraAppClientID)
	envString(lookup, EnvOBOUMIClientID, &cfg.OBO.ManagedIdentityClientID)
	envString(lookup, EnvKustoAudience, &cfg.OBO.KustoAudience)

	envString(lookup, EnvKustoServiceURI, &cfg.Kusto.ServiceURI)
	envString(lookup, EnvKustoDefaultDB, &cfg.Kusto.DefaultDatabase)
	envBool(lookup, EnvKustoEagerConnect, &cfg.Kusto.EagerConnect)
	envBool(lookup, EnvKustoAllowUnknown, &cfg.Kusto.AllowUnknownServices)
	envString(lookup, EnvEmbeddingEndpoint, &cfg.Kusto.EmbeddingEndpoint)
	envString(lookup, EnvResponseFormat, &cfg.Kusto.ResponseFormat)

	if v, ok := lookup(EnvKustoTimeout); ok && v != "" {
		if seconds, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Kusto.TimeoutSeconds = seconds
		} else {
			logging.Warn("Config", "Ignoring %s=%q: not a number of seconds", EnvKustoTimeout, v)
		}
	}

	if v, ok := lookup(EnvKustoKnownServices); ok && strings.TrimSpace(v) != "" {
		services, err := ParseKnownServices(v)
		if err != nil {
			logging.Error("Config", err, "Failed to parse %s, skipping known services", EnvKustoKnownServices)
		} else {
			cfg.Kusto.KnownServices = services
		}
	}

	envString(lookup, EnvLogLevel, &cfg.Logging.Level)
	envString(lookup, EnvLogFormat, &cfg.Logging.Format)
}

// ParseKnownServices decodes a JSON list of
// {"service_uri", "default_database", "description"} objects.
func ParseKnownServices(text string) ([]kusto.Endpoint, error) {
	var services []kusto.Endpoint
	if err := json.Unmarshal([]byte(text), &services); err != nil {
		return nil, fmt.Errorf("invalid known services JSON: %w", err)
	}
	return services, nil
}

// SetEnvVars lists the configuration variables present in the environment.
// Only names are reported, values may hold secrets.
func SetEnvVars(lookup LookupFunc) []string {
	names := []string{
		EnvTransport, EnvHTTPHost, EnvHTTPPort, EnvAzurePort, EnvFunctionsPort, EnvHTTPPath,
		EnvStatelessHTTP, EnvUseOBOFlow, EnvOBOTenantID, EnvOBOAppClientID, EnvOBOUMIClientID,
		EnvKustoAudience, EnvKustoServiceURI, EnvKustoDefaultDB, EnvKustoKnownServices,
		EnvKustoEagerConnect, EnvKustoAllowUnknown, EnvKustoTimeout, EnvEmbeddingEndpoint,
		EnvResponseFormat, EnvLogLevel, EnvLogFormat,
	}
	var set []string
	for _, name := range names {
		if _, ok := lookup(name); ok {
			set = append(set, name)
		}
	}
	return set
}

func envString(lookup LookupFunc, name string, dst *string) {
	if v, ok := lookup(name); ok && v != "" {
		*dst = strings.TrimSpace(v)
	}
}

// envBool accepts true, 1 and yes in any case. Any other set value is false.
func envBool(lookup LookupFunc, name string, dst *bool) {
	v, ok := lookup(name)
	if !ok || v == "" {
		return
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		*dst = true
	default:
		*dst = false
	}
}
