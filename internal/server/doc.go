// Package server exposes the MCP server over HTTP or stdio.
//
// Over HTTP every request passes the same chain:
//
//	┌──────────────────────────────────────────────┐
//	│  CORS (preflight answered here)              │
//	│     │                                        │
//	│     ▼                                        │
//	│  Auth gate                                   │
//	│     bearer token required                    │
//	│     optional on-behalf-of exchange           │
//	│     token published in request context       │
//	│     │                                        │
//	│     ▼                                        │
//	│  Routes                                      │
//	│     /health   liveness, no auth              │
//	│     /metrics  Prometheus, no auth            │
//	│     /mcp      streamable HTTP MCP endpoint   │
//	└──────────────────────────────────────────────┘
//
// The gate answers authentication failures with a JSON body of the form
// {"error": "unauthorized", "message": "..."} and never lets a handler panic
// escape as a dropped connection.
package server
