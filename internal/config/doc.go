// Package config loads the server configuration.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults (stdio transport, 127.0.0.1:3000, path /mcp)
//  2. an optional YAML file passed with --config
//  3. environment variables
//  4. command line flags, applied by the cmd package
//
// # File Format
//
//	server:
//	  transport: http
//	  host: 0.0.0.0
//	  port: 3000
//	  path: /mcp
//	  stateless: false
//	obo:
//	  enabled: true
//	  tenantId: 72f988bf-86f1-41af-91ab-2d7cd011db47
//	  entraAppClientId: 00000000-0000-0000-0000-000000000000
//	  managedIdentityClientId: 00000000-0000-0000-0000-000000000000
//	  kustoAudience: https://kusto.kusto.windows.net
//	kusto:
//	  serviceUri: https://help.kusto.windows.net
//	  defaultDatabase: Samples
//	  knownServices:
//	    - serviceUri: https://other.kusto.windows.net
//	      defaultDatabase: Logs
//	      description: Production logs
//	  allowUnknownServices: false
//	  eagerConnect: false
//	  timeoutSeconds: 300
//	  responseFormat: columnar
//	logging:
//	  level: info
//	  format: text
//
// # Environment Variables
//
// The environment names are shared with the Python server this one replaces,
// so existing deployments keep working unchanged. See ApplyEnv for the list.
//
// # Reloading
//
// Watcher observes the YAML file and hands every successfully loaded
// configuration to a callback. The serve command uses it to refresh the known
// services allowlist without a restart.
package config
