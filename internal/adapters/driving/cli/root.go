// Package cli provides the command-line interface for prospect.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driving"
	"github.com/custodia-labs/prospect-cli/internal/logger"
)

// version is set via Setup from the build.
var version = "dev"

// Services injected by Setup. Commands check for nil so a partially wired
// binary fails with a clear message instead of a panic.
var (
	orchestrator driving.Orchestrator
	configStore  driven.ConfigStore
	resultStore  driven.ResultStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "prospect",
	Short: "Multi-source company research from the command line",
	Long: `Prospect gathers company intelligence from multiple data sources
concurrently: web archives, startup databases, search APIs and code
hosting platforms. Sources run independently; one failing or slow
source never blocks the others.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Setup injects the services the commands depend on.
func Setup(orch driving.Orchestrator, configs driven.ConfigStore, results driven.ResultStore, buildVersion string) {
	orchestrator = orch
	configStore = configs
	resultStore = results
	if buildVersion != "" {
		version = buildVersion
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
