package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"rtimcp/internal/app"
	"rtimcp/internal/config"
	"rtimcp/pkg/logging"
)

// serveFlags holds the serve command flags. Each one only overrides the
// layered configuration when it was set on the command line.
type serveFlags struct {
	stdio            bool
	http             bool
	host             string
	port             int
	path             string
	stateless        bool
	useOBO           bool
	entraAppClientID string
	umiClientID      string
	interactiveLogin bool
}

var serveOpts serveFlags

// serveCmd starts the MCP server on the configured transport.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio or streamable HTTP",
	Long: `Starts the Fabric RTI MCP server.

Transports:
  stdio (default)  MCP over stdin and stdout, using the ambient Azure identity.
  http             Streamable HTTP on --host:--port at --path. Every request
                   must carry a bearer token; with --use-obo-flow the token is
                   exchanged on behalf of the user for a cluster token.

Configuration is layered: built-in defaults, then the --config YAML file,
then environment variables (FABRIC_RTI_*, KUSTO_*, USE_OBO_FLOW, PORT), then
the flags below. When --config is set, known services are reloaded whenever
the file changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := serveOpts.apply(cmd.Flags(), &settings); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := initLogging(settings.Logging); err != nil {
		return err
	}

	application, err := app.NewApplication(app.NewConfig(settings, configPath, GetVersion()))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := application.Run(ctx); err != nil {
		logging.Error("Bootstrap", err, "Server stopped with an error")
		return err
	}
	return nil
}

// apply overlays the flags that were set onto settings.
func (o serveFlags) apply(flags *pflag.FlagSet, settings *config.Config) error {
	if o.stdio && o.http {
		return config.ValidationError{Field: "server.transport", Message: "--stdio and --http are mutually exclusive"}
	}
	if flags.Changed("stdio") && o.stdio {
		settings.Server.Transport = config.TransportStdio
	}
	if flags.Changed("http") && o.http {
		settings.Server.Transport = config.TransportHTTP
	}
	if flags.Changed("host") {
		settings.Server.Host = o.host
	}
	if flags.Changed("port") {
		settings.Server.Port = o.port
	}
	if flags.Changed("path") {
		settings.Server.Path = o.path
	}
	if flags.Changed("stateless-http") {
		settings.Server.Stateless = o.stateless
	}
	if flags.Changed("use-obo-flow") {
		settings.OBO.Enabled = o.useOBO
	}
	if flags.Changed("entra-app-client-id") {
		settings.OBO.EntraAppClientID = o.entraAppClientID
	}
	if flags.Changed("umi-client-id") {
		settings.OBO.ManagedIdentityClientID = o.umiClientID
	}
	if flags.Changed("interactive-login") {
		settings.Kusto.InteractiveLogin = o.interactiveLogin
	}
	return nil
}

// register binds the flags to o.
func (o *serveFlags) register(flags *pflag.FlagSet) {
	flags.BoolVar(&o.stdio, "stdio", false, "Serve MCP over stdin and stdout")
	flags.BoolVar(&o.http, "http", false, "Serve MCP over streamable HTTP")
	flags.StringVar(&o.host, "host", config.DefaultHost, "HTTP bind host")
	flags.IntVar(&o.port, "port", config.DefaultPort, "HTTP port")
	flags.StringVar(&o.path, "path", config.DefaultPath, "MCP endpoint path")
	flags.BoolVar(&o.stateless, "stateless-http", false, "Do not track streamable HTTP sessions")
	flags.BoolVar(&o.useOBO, "use-obo-flow", false, "Exchange the caller token on behalf of the user")
	flags.StringVar(&o.entraAppClientID, "entra-app-client-id", "", "Entra app client ID used for the on-behalf-of exchange")
	flags.StringVar(&o.umiClientID, "umi-client-id", "", "User-assigned managed identity client ID for the client assertion")
	flags.BoolVar(&o.interactiveLogin, "interactive-login", false, "Allow interactive browser login in the ambient credential chain")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveOpts.register(serveCmd.Flags())
}
