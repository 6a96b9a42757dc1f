package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	s, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewConfigStore_SeedsDefaultFile(t *testing.T) {
	s := newTestStore(t)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[drivers.wayback]")

	configs, err := s.Load()
	require.NoError(t, err)
	assert.True(t, configs["wayback"].Enabled)
	assert.False(t, configs["tavily"].Enabled)
}

func TestLoad_ParsesDriverTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[drivers.tavily]
enabled = true
api_key = "tvly-secret"
timeout = "45s"
max_attempts = 5
priority = 10
`), 0600))

	s, err := NewConfigStore(dir)
	require.NoError(t, err)

	configs, err := s.Load()
	require.NoError(t, err)

	cfg := configs["tavily"]
	assert.Equal(t, domain.DriverConfig{
		Enabled:     true,
		Credential:  "tvly-secret",
		Timeout:     45 * time.Second,
		MaxAttempts: 5,
		Priority:    10,
	}, cfg)
}

func TestLoad_BadTimeout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[drivers.tavily]
enabled = true
timeout = "banana"
`), 0600))

	s, err := NewConfigStore(dir)
	require.NoError(t, err)

	_, err = s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drivers.tavily.timeout")
}

func TestSetCredential_EnablesDriver(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetCredential("crunchbase", "cb-key"))

	configs, err := s.Load()
	require.NoError(t, err)
	assert.True(t, configs["crunchbase"].Enabled)
	assert.Equal(t, "cb-key", configs["crunchbase"].Credential)

	// Other entries survive the rewrite.
	assert.True(t, configs["wayback"].Enabled)
}

func TestWatch_ReportsChanges(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan struct{}, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher a moment to arm before touching the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.SetCredential("tavily", "new-key"))

	select {
	case <-changed:
	case <-ctx.Done():
		t.Fatal("watcher never reported the config write")
	}

	cancel()
	assert.ErrorIs(t, <-watchErr, context.Canceled)
}
