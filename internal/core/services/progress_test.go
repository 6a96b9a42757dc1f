package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

func TestProgressTracker_ClampsRange(t *testing.T) {
	tr := newProgressTracker()

	tr.Set(-5)
	_, p := tr.read()
	assert.Equal(t, 0.0, p)

	tr.Set(150)
	_, p = tr.read()
	assert.Equal(t, 100.0, p)
}

func TestProgressTracker_MonotonicWithinAttempt(t *testing.T) {
	tr := newProgressTracker()

	tr.Set(60)
	tr.Set(40)

	_, p := tr.read()
	assert.Equal(t, 60.0, p)
}

func TestProgressTracker_ResetAttemptStartsOver(t *testing.T) {
	tr := newProgressTracker()

	tr.Set(80)
	tr.resetAttempt()

	_, p := tr.read()
	assert.Equal(t, 0.0, p)

	tr.Set(10)
	_, p = tr.read()
	assert.Equal(t, 10.0, p)
}

func TestProgressTracker_Status(t *testing.T) {
	tr := newProgressTracker()

	status, _ := tr.read()
	assert.Equal(t, domain.StatusIdle, status)

	tr.setStatus(domain.StatusRunning)
	status, _ = tr.read()
	assert.Equal(t, domain.StatusRunning, status)
}
