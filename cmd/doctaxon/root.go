package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	applog "github.com/nao1215/doctaxon/internal/log"
)

// NewRootCmd creates the root command for doctaxon.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctaxon",
		Short: "Build learning taxonomies from analyzed documentation pages",
		Long: `doctaxon turns analyzed documentation pages into a navigable taxonomy.

Pages are clustered by their embeddings into learning modules, each
module's pages are put in learning order, and modules are grouped into
topics. The taxonomy is exported as JSON and Markdown together with the
prerequisite graph (Mermaid, DOT) and a plain-text build report.

Pages come from the local page store (see 'doctaxon import'), from page
export files (--input) or directly from the crawler database (--dsn).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .doctaxon in current or home directory)")

	// Add subcommands
	cmd.AddCommand(NewBuildCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag returns the --config value, or "" when the command was
// built without the root command.
func getConfigFlag(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("config"); f != nil {
		return f.Value.String()
	}
	if f := cmd.Root().PersistentFlags().Lookup("config"); f != nil {
		return f.Value.String()
	}
	return ""
}

// setupLogger creates a structured logger based on verbosity setting.
// API keys and connection string passwords are masked in every record.
func setupLogger(verbose bool) *slog.Logger {
	return applog.NewSecureLogger(os.Stderr, verbose)
}
