package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prospect-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/logger"
)

var (
	researchHomepage string
	researchNotes    string
	researchDriver   string
	researchJSON     bool
	researchTUI      bool
)

var researchCmd = &cobra.Command{
	Use:   "research <company-name>",
	Short: "Research a company across all configured sources",
	Long: `Runs every enabled data source concurrently for the given company
and prints the aggregated results. Sources that are disabled or missing
a credential are reported as skipped, never as failures.

Use --driver to query a single source, --json for machine-readable
output, and --tui for a live progress display.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringVar(&researchHomepage, "homepage", "", "company homepage URL (guessed from the name when omitted)")
	researchCmd.Flags().StringVar(&researchNotes, "notes", "", "free-form context notes for the run")
	researchCmd.Flags().StringVar(&researchDriver, "driver", "", "run a single named source instead of all of them")
	researchCmd.Flags().BoolVar(&researchJSON, "json", false, "print results as JSON")
	researchCmd.Flags().BoolVar(&researchTUI, "tui", false, "show a live progress display")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("research service not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	entity := domain.Entity{
		Name:     args[0],
		Homepage: researchHomepage,
		Notes:    researchNotes,
	}

	if researchDriver != "" {
		return runResearchSingle(ctx, cmd, entity)
	}

	var bundle *domain.ResultBundle
	var err error
	if researchTUI {
		bundle, err = tui.Run(ctx, orchestrator, entity)
	} else {
		bundle, err = runWithProgress(ctx, cmd, entity)
	}
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	if resultStore != nil {
		if saveErr := resultStore.SaveBundle(ctx, bundle); saveErr != nil {
			logger.Warn("Could not save run %s: %v", bundle.RunID, saveErr)
		}
	}

	if researchJSON {
		return printJSON(cmd, bundle)
	}
	printBundle(cmd, bundle)
	return nil
}

func runResearchSingle(ctx context.Context, cmd *cobra.Command, entity domain.Entity) error {
	result, err := orchestrator.RunSingle(ctx, researchDriver, entity)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	if researchJSON {
		return printJSON(cmd, result)
	}
	printResult(cmd, *result)
	return nil
}

// runWithProgress runs the research while updating a single status line.
func runWithProgress(ctx context.Context, cmd *cobra.Command, entity domain.Entity) (*domain.ResultBundle, error) {
	cmd.Printf("Researching %q...\n", entity.Name)

	type outcome struct {
		bundle *domain.ResultBundle
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		bundle, err := orchestrator.RunAll(ctx, entity)
		done <- outcome{bundle, err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case o := <-done:
			if o.err == nil {
				cmd.Printf("\rProgress: 100%%   \n")
			}
			return o.bundle, o.err
		case <-ticker.C:
			cmd.Printf("\rProgress: %3.0f%%", orchestrator.AggregateProgress())
		}
	}
}

// printBundle renders a human-readable run summary, completed sources
// first, then failures, then skips.
func printBundle(cmd *cobra.Command, bundle *domain.ResultBundle) {
	names := make([]string, 0, len(bundle.Results))
	for name := range bundle.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Printf("\nRun %s for %q\n", bundle.RunID, bundle.Entity.Name)
	for _, name := range names {
		printResult(cmd, bundle.Results[name])
	}
	cmd.Printf("\n%d completed, %d failed, %d skipped\n",
		bundle.CountByStatus(domain.StatusCompleted),
		bundle.CountByStatus(domain.StatusFailed),
		bundle.CountByStatus(domain.StatusDisabled)+bundle.CountByStatus(domain.StatusMissingCredential))
}

func printResult(cmd *cobra.Command, r domain.DriverResult) {
	switch {
	case r.Status == domain.StatusCompleted:
		cmd.Printf("  ✓ %-14s %d field(s) in %.1fs\n", r.DriverName, len(r.Data), r.Duration().Seconds())
	case r.Status.Skipped():
		cmd.Printf("  - %-14s skipped: %s\n", r.DriverName, r.ErrorMessage)
	default:
		cmd.Printf("  ✗ %-14s %s after %d attempt(s): %s\n", r.DriverName, r.ErrorKind, r.AttemptsUsed, r.ErrorMessage)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
