package cmd

import (
	"github.com/spf13/cobra"

	"rtimcp/internal/formatting"
	"rtimcp/internal/kusto"
)

var servicesOutput string

// newServicesCmd lists the clusters the server will accept.
func newServicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "List the known Kusto services",
		Long: `Lists the known services allowlist as the server resolves it from the
configuration file and environment: the default service first, then
KUSTO_KNOWN_SERVICES entries. No connection is opened.`,
		Args: cobra.NoArgs,
		RunE: runServices,
	}
	cmd.Flags().StringVarP(&servicesOutput, "output", "o", "table", "Output format: table, json or yaml")
	return cmd
}

func runServices(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(settings.Logging); err != nil {
		return err
	}
	format, err := formatting.ParseOutputFormat(servicesOutput)
	if err != nil {
		return err
	}

	registry := kusto.NewRegistry(kusto.RegistryOptions{
		KnownServices:        settings.Kusto.Endpoints(),
		AllowUnknownServices: settings.Kusto.AllowUnknownServices,
	})
	return formatting.NewPrinter(format, cmd.OutOrStdout()).Services(registry.KnownServices())
}

func init() {
	rootCmd.AddCommand(newServicesCmd())
}
