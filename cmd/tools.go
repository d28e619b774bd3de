package cmd

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"rtimcp/internal/app"
	"rtimcp/internal/formatting"
)

var toolsOutput string

// newToolsCmd prints the MCP tool catalog.
func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the MCP tools the server exposes",
		Long: `Lists every MCP tool with its read-only and destructive annotations,
exactly as clients see them in tools/list.`,
		Args: cobra.NoArgs,
		RunE: runTools,
	}
	cmd.Flags().StringVarP(&toolsOutput, "output", "o", "table", "Output format: table, json or yaml")
	return cmd
}

func runTools(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(settings.Logging); err != nil {
		return err
	}
	format, err := formatting.ParseOutputFormat(toolsOutput)
	if err != nil {
		return err
	}

	services, err := app.InitializeServices(app.NewConfig(settings, "", GetVersion()))
	if err != nil {
		return err
	}
	serverTools := services.Tools.Tools()
	catalog := make([]mcp.Tool, 0, len(serverTools))
	for _, t := range serverTools {
		catalog = append(catalog, t.Tool)
	}
	return formatting.NewPrinter(format, cmd.OutOrStdout()).Tools(catalog)
}

func init() {
	rootCmd.AddCommand(newToolsCmd())
}
