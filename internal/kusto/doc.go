// Package kusto runs KQL queries, management commands and ingestion against
// Kusto clusters on behalf of MCP tool calls.
//
// # Connections
//
// A Registry caches one Connection per normalized cluster URI for the life of
// the process. Connections do not own a credential: their clients authenticate
// through a contextCredential which, on every token request, uses the caller's
// bearer token from the request context (see package credential) and only
// falls back to the ambient Azure identity chain when there is none. One
// Connection can therefore serve callers with different identities.
//
// Unknown clusters are accepted unless the registry was built with
// AllowUnknownServices false, in which case Get returns a *PolicyError.
//
// # Operations
//
// Service implements the tool operations. Each call carries client request
// properties: the application name, a correlation id of the form
// KFRTI_MCP.<operation>:<uuid>, request_readonly for non-destructive
// operations and the configured server timeout. Results are encoded with
// package codec.
package kusto
