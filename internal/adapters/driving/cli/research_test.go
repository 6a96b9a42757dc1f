package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driving"
)

// mockOrchestrator implements driving.Orchestrator for testing.
type mockOrchestrator struct {
	bundle *domain.ResultBundle
	result *domain.DriverResult
	infos  []driving.DriverInfo

	runAllErr    error
	runSingleErr error
}

func (m *mockOrchestrator) SetConfigs(map[string]domain.DriverConfig) error { return nil }

func (m *mockOrchestrator) ListDrivers() []driving.DriverInfo { return m.infos }

func (m *mockOrchestrator) RunAll(_ context.Context, entity domain.Entity) (*domain.ResultBundle, error) {
	if m.runAllErr != nil {
		return nil, m.runAllErr
	}
	bundle := m.bundle
	bundle.Entity = entity
	return bundle, nil
}

func (m *mockOrchestrator) RunSingle(_ context.Context, name string, _ domain.Entity) (*domain.DriverResult, error) {
	if m.runSingleErr != nil {
		return nil, m.runSingleErr
	}
	return m.result, nil
}

func (m *mockOrchestrator) AggregateProgress() float64 { return 50 }

func (m *mockOrchestrator) Snapshot() domain.ProgressSnapshot { return nil }

func sampleTestBundle() *domain.ResultBundle {
	now := time.Now()
	return &domain.ResultBundle{
		RunID: "run-test",
		Results: map[string]domain.DriverResult{
			"wayback": {
				DriverName:      "wayback",
				Status:          domain.StatusCompleted,
				Data:            map[string]any{"available": true},
				StartedAt:       now.Add(-time.Second),
				CompletedAt:     now,
				AttemptsUsed:    1,
				ProgressPercent: 100,
			},
			"tavily": {
				DriverName:   "tavily",
				Status:       domain.StatusFailed,
				ErrorKind:    domain.KindTransient,
				ErrorMessage: "timed out after 1m0s",
				AttemptsUsed: 3,
			},
			"github": {
				DriverName:   "github",
				Status:       domain.StatusMissingCredential,
				ErrorKind:    domain.KindConfigurationGap,
				ErrorMessage: "credential required for GitHub but none configured",
			},
		},
		CompletedAt: now,
	}
}

func setupResearchTest(mock *mockOrchestrator) func() {
	oldOrch, oldStore := orchestrator, resultStore
	orchestrator = mock
	resultStore = nil
	return func() {
		orchestrator = oldOrch
		resultStore = oldStore
		researchHomepage, researchNotes, researchDriver = "", "", ""
		researchJSON, researchTUI = false, false
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestResearchCmd_Use(t *testing.T) {
	assert.Equal(t, "research <company-name>", researchCmd.Use)
}

func TestResearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Research a company across all configured sources", researchCmd.Short)
}

func TestResearchCmd_PrintsSummary(t *testing.T) {
	cleanup := setupResearchTest(&mockOrchestrator{bundle: sampleTestBundle()})
	defer cleanup()

	out, err := executeCommand(t, "research", "Acme")

	require.NoError(t, err)
	assert.Contains(t, out, `Researching "Acme"`)
	assert.Contains(t, out, "run-test")
	assert.Contains(t, out, "✓ wayback")
	assert.Contains(t, out, "✗ tavily")
	assert.Contains(t, out, "skipped: credential required")
	assert.Contains(t, out, "1 completed, 1 failed, 1 skipped")
}

func TestResearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupResearchTest(&mockOrchestrator{bundle: sampleTestBundle()})
	defer cleanup()

	out, err := executeCommand(t, "research", "Acme", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"run_id": "run-test"`)
	assert.Contains(t, out, `"driver_name": "wayback"`)
}

func TestResearchCmd_SingleDriver(t *testing.T) {
	mock := &mockOrchestrator{result: &domain.DriverResult{
		DriverName:      "wayback",
		Status:          domain.StatusCompleted,
		Data:            map[string]any{"available": true},
		AttemptsUsed:    1,
		ProgressPercent: 100,
	}}
	cleanup := setupResearchTest(mock)
	defer cleanup()

	out, err := executeCommand(t, "research", "Acme", "--driver", "wayback")

	require.NoError(t, err)
	assert.Contains(t, out, "✓ wayback")
}

func TestResearchCmd_UnknownDriver(t *testing.T) {
	mock := &mockOrchestrator{
		runSingleErr: fmt.Errorf("%w: %q", domain.ErrDriverNotFound, "nope"),
	}
	cleanup := setupResearchTest(mock)
	defer cleanup()

	_, err := executeCommand(t, "research", "Acme", "--driver", "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDriverNotFound)
}

func TestResearchCmd_RequiresCompanyName(t *testing.T) {
	cleanup := setupResearchTest(&mockOrchestrator{bundle: sampleTestBundle()})
	defer cleanup()

	_, err := executeCommand(t, "research")

	assert.Error(t, err)
}

func TestResearchCmd_NotConfigured(t *testing.T) {
	oldOrch := orchestrator
	orchestrator = nil
	defer func() { orchestrator = oldOrch }()

	_, err := executeCommand(t, "research", "Acme")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
