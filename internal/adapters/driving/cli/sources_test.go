package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driving"
)

func TestSourcesCmd_Use(t *testing.T) {
	assert.Equal(t, "sources", sourcesCmd.Use)
}

func TestSourcesCmd_ListsDrivers(t *testing.T) {
	mock := &mockOrchestrator{infos: []driving.DriverInfo{
		{Name: "wayback", DisplayName: "Wayback Machine", Status: domain.StatusIdle},
		{Name: "tavily", DisplayName: "Tavily AI Search", Status: domain.StatusMissingCredential, RequiresCredential: true},
		{Name: "serpapi", DisplayName: "SerpAPI", Status: domain.StatusDisabled, RequiresCredential: true, HasCredential: true},
	}}
	cleanup := setupResearchTest(mock)
	defer cleanup()

	out, err := executeCommand(t, "sources")

	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "wayback")
	assert.Contains(t, out, "not required")
	assert.Contains(t, out, "missing_credential")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "configured")
}

func TestSourcesCmd_NotConfigured(t *testing.T) {
	oldOrch := orchestrator
	orchestrator = nil
	defer func() { orchestrator = oldOrch }()

	_, err := executeCommand(t, "sources")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
