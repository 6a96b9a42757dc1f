package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prospect-cli/internal/logger"
)

var sourcesWatch bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured data sources",
	Long: `Lists every data source with its status: ready, disabled, or
missing a credential. With --watch, re-lists whenever the configuration
file changes.`,
	RunE: runSources,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesWatch, "watch", false, "re-list when the configuration changes")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("research service not configured")
	}

	printSources(cmd)

	if !sourcesWatch {
		return nil
	}
	if configStore == nil {
		return errors.New("config store not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd.Printf("\nWatching %s (Ctrl-C to stop)\n", configStore.Path())
	err := configStore.Watch(ctx, func() {
		configs, loadErr := configStore.Load()
		if loadErr != nil {
			logger.Warn("Could not reload config: %v", loadErr)
			return
		}
		// A run in flight keeps its old configuration; retry once it ends.
		if applyErr := orchestrator.SetConfigs(configs); applyErr != nil {
			logger.Warn("Could not apply config: %v", applyErr)
			return
		}
		cmd.Println()
		printSources(cmd)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printSources(cmd *cobra.Command) {
	cmd.Printf("%-14s %-22s %-19s %s\n", "NAME", "DISPLAY NAME", "STATUS", "CREDENTIAL")
	for _, info := range orchestrator.ListDrivers() {
		credential := "not required"
		if info.RequiresCredential {
			credential = "missing"
			if info.HasCredential {
				credential = "configured"
			}
		}
		cmd.Printf("%-14s %-22s %-19s %s\n", info.Name, info.DisplayName, info.Status, credential)
	}
}
