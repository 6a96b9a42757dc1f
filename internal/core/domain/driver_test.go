package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDriverStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusDisabled.Terminal())
	assert.True(t, StatusMissingCredential.Terminal())
	assert.False(t, StatusIdle.Terminal())
	assert.False(t, StatusRunning.Terminal())
}

func TestDriverStatus_Skipped(t *testing.T) {
	assert.True(t, StatusDisabled.Skipped())
	assert.True(t, StatusMissingCredential.Skipped())
	assert.False(t, StatusFailed.Skipped())
	assert.False(t, StatusCompleted.Skipped())
}

func TestDriverResult_Duration(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ran := DriverResult{StartedAt: start, CompletedAt: start.Add(3 * time.Second)}
	assert.Equal(t, 3*time.Second, ran.Duration())

	skipped := DriverResult{Status: StatusDisabled}
	assert.Zero(t, skipped.Duration())
}

func TestResultBundle_CountByStatus(t *testing.T) {
	b := &ResultBundle{Results: map[string]DriverResult{
		"a": {Status: StatusCompleted},
		"b": {Status: StatusCompleted},
		"c": {Status: StatusFailed},
		"d": {Status: StatusDisabled},
	}}

	assert.Equal(t, 2, b.CountByStatus(StatusCompleted))
	assert.Equal(t, 1, b.CountByStatus(StatusFailed))
	assert.Equal(t, 1, b.CountByStatus(StatusDisabled))
	assert.Equal(t, 0, b.CountByStatus(StatusMissingCredential))
}

func TestDriverConfig_Normalised(t *testing.T) {
	c := DriverConfig{Enabled: true}.Normalised()
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, DefaultMaxAttempts, c.MaxAttempts)

	explicit := DriverConfig{Timeout: 5 * time.Second, MaxAttempts: 1}.Normalised()
	assert.Equal(t, 5*time.Second, explicit.Timeout)
	assert.Equal(t, 1, explicit.MaxAttempts)
}

func TestEntity_Validate(t *testing.T) {
	assert.NoError(t, Entity{Name: "Acme Corp"}.Validate())
	assert.ErrorIs(t, Entity{Name: "  "}.Validate(), ErrInvalidEntity)
	assert.ErrorIs(t, Entity{}.Validate(), ErrInvalidEntity)
}
