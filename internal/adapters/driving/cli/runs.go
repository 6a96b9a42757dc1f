package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List stored research runs",
	Long: `Without arguments, lists the most recent runs. With a run ID,
prints that run's full results.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	if resultStore == nil {
		return errors.New("result store not configured")
	}
	ctx := context.Background()

	if len(args) > 0 {
		bundle, err := resultStore.GetBundle(ctx, args[0])
		if err != nil {
			return fmt.Errorf("loading run: %w", err)
		}
		printBundle(cmd, bundle)
		return nil
	}

	summaries, err := resultStore.ListRuns(ctx, runsLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(summaries) == 0 {
		cmd.Println("No stored runs. Start one with 'prospect research <company>'.")
		return nil
	}

	cmd.Printf("%-38s %-24s %-20s %s\n", "RUN ID", "COMPANY", "COMPLETED", "OK/FAIL/SKIP")
	for _, s := range summaries {
		cmd.Printf("%-38s %-24s %-20s %d/%d/%d\n",
			s.RunID, s.EntityName, s.CompletedAt.Local().Format("2006-01-02 15:04:05"),
			s.Completed, s.Failed, s.Skipped)
	}
	return nil
}
