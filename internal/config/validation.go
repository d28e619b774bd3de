package config

import (
	"fmt"
	"net/url"
	"strings"

	"rtimcp/internal/codec"
	"rtimcp/internal/oauth"
	"rtimcp/pkg/logging"
)

// Validate checks the configuration. It returns ValidationErrors listing
// every problem found, or nil.
//
// Missing on-behalf-of identity settings are not an error here: the server
// starts and each authenticated request fails instead. MissingOBOSettings
// reports them for a startup warning.
func (c Config) Validate() error {
	var errs ValidationErrors

	if err := ValidateOneOf("server.transport", c.Server.Transport, []string{TransportStdio, TransportHTTP}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if c.Server.Transport == TransportHTTP {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			errs.Add("server.port", "must be between 1 and 65535", c.Server.Port)
		}
		if !strings.HasPrefix(c.Server.Path, "/") {
			errs.Add("server.path", "must start with '/'", c.Server.Path)
		}
	}

	if c.Kusto.ServiceURI != "" {
		if err := validateServiceURI("kusto.serviceUri", c.Kusto.ServiceURI); err != nil {
			errs = append(errs, *err)
		}
	}
	for i, ep := range c.Kusto.KnownServices {
		field := fmt.Sprintf("kusto.knownServices[%d].serviceUri", i)
		if strings.TrimSpace(ep.URI) == "" {
			errs.Add(field, "is required")
			continue
		}
		if err := validateServiceURI(field, ep.URI); err != nil {
			errs = append(errs, *err)
		}
	}
	if c.Kusto.TimeoutSeconds < 0 {
		errs.Add("kusto.timeoutSeconds", "must not be negative", c.Kusto.TimeoutSeconds)
	}
	if _, err := codec.ParseFormat(c.Kusto.ResponseFormat); err != nil {
		errs.Add("kusto.responseFormat", err.Error(), c.Kusto.ResponseFormat)
	}

	if err := ValidateOneOf("logging.format", strings.ToLower(c.Logging.Format), []string{"text", "json"}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.Add("logging.level", err.Error(), c.Logging.Level)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// OBOExchangeConfig returns the exchanger configuration.
func (c Config) OBOExchangeConfig() oauth.OBOConfig {
	return oauth.OBOConfig{
		TenantID:                c.OBO.TenantID,
		EntraAppClientID:        c.OBO.EntraAppClientID,
		ManagedIdentityClientID: c.OBO.ManagedIdentityClientID,
	}
}

// MissingOBOSettings names the identity settings an enabled exchange lacks.
func (c Config) MissingOBOSettings() []string {
	if !c.OBO.Enabled {
		return nil
	}
	var missing []string
	if strings.TrimSpace(c.OBO.EntraAppClientID) == "" {
		missing = append(missing, EnvOBOAppClientID)
	}
	if strings.TrimSpace(c.OBO.TenantID) == "" {
		missing = append(missing, EnvOBOTenantID)
	}
	if strings.TrimSpace(c.OBO.ManagedIdentityClientID) == "" {
		missing = append(missing, EnvOBOUMIClientID)
	}
	return missing
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

func validateServiceURI(field, raw string) *ValidationError {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return &ValidationError{Field: field, Value: raw, Message: "must be an absolute http(s) URL"}
	}
	return nil
}
