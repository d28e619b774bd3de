// Package credential carries the caller's bearer token through a request.
//
// The HTTP auth gate is the only writer: it stores the validated (and, when
// configured, exchanged) token with WithToken before handing the request to
// the MCP handler. Kusto connections read it back with TokenFromContext each
// time the SDK asks for a token, so one cached connection can serve many
// callers without ever holding their credentials. A context without a token
// means the server falls back to its ambient machine identity.
package credential
