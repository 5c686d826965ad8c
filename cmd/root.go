package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sefaria/sefaria-mcp/internal/api"
	"github.com/Sefaria/sefaria-mcp/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates the configuration could not be loaded or is invalid.
	ExitCodeConfig = 2
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sefaria-mcp",
	Short: "MCP server for the Sefaria library of Jewish texts",
	Long: `sefaria-mcp exposes the Sefaria library to AI assistants over the
Model Context Protocol: texts, translations, search, links, topics,
dictionaries, the Jewish calendar and manuscript images.

Run 'sefaria-mcp serve' to start the server and 'sefaria-mcp tools' to list
the tools it offers.`,
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
	rootCmd.SetVersionTemplate(`{{printf "sefaria-mcp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error to a semantic exit code for scripting and
// service supervisors.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var validation config.ValidationErrors
	if errors.As(err, &validation) || api.IsConfigError(err) {
		return ExitCodeConfig
	}
	var single config.ValidationError
	if errors.As(err, &single) {
		return ExitCodeConfig
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
