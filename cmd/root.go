package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rtimcp/internal/config"
	"rtimcp/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates an unreadable or invalid configuration.
	ExitCodeConfigError = 2
)

var (
	// configPath is the optional YAML configuration file.
	configPath string
	// logLevel and logFormat override the logging section of the config.
	logLevel  string
	logFormat string
)

// rootCmd represents the base command for the rtimcp application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rtimcp",
	Short: "MCP server for Microsoft Fabric Real-Time Intelligence",
	Long: `rtimcp exposes Eventhouse and Azure Data Explorer (Kusto) clusters to AI
assistants through the Model Context Protocol. It serves over stdio for local
clients or over streamable HTTP, optionally exchanging the caller's token on
behalf of the user before querying the cluster.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "rtimcp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var configErr *config.ConfigurationError
	if errors.As(err, &configErr) {
		return ExitCodeConfigError
	}

	var validationErrs config.ValidationErrors
	if errors.As(err, &validationErrs) {
		return ExitCodeConfigError
	}

	var validationErr config.ValidationError
	if errors.As(err, &validationErr) {
		return ExitCodeConfigError
	}

	return ExitCodeError
}

// loadSettings layers the config file and the environment, then applies the
// persistent logging flags when they were given.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("log-level") {
		settings.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		settings.Logging.Format = logFormat
	}
	return settings, nil
}

// initLogging configures pkg/logging from the settings. Logs always go to
// stderr: stdout carries the stdio transport and command output.
func initLogging(settings config.LoggingConfig) error {
	level, err := logging.ParseLevel(settings.Level)
	if err != nil {
		return config.ValidationError{Field: "logging.level", Value: settings.Level, Message: err.Error()}
	}
	format := logging.Format(strings.ToLower(strings.TrimSpace(settings.Format)))
	if format == "" {
		format = logging.FormatText
	}
	logging.Init(level, format, os.Stderr)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(newVersionCmd())
}
