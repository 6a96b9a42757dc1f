package services

import (
	"sync"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

// progressTracker is the last-value progress register for one driver
// invocation. The invocation goroutine is the only writer; the manager
// reads it when polled for aggregate progress. Readers may miss
// intermediate values but always observe the final one.
type progressTracker struct {
	mu      sync.RWMutex
	status  domain.DriverStatus
	percent float64
}

func newProgressTracker() *progressTracker {
	return &progressTracker{status: domain.StatusIdle}
}

// Set records a progress value, clamped to [0,100]. Progress is monotonic
// within an attempt: values below the current one are ignored.
func (t *progressTracker) Set(percent float64) {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if percent > t.percent {
		t.percent = percent
	}
}

// resetAttempt restarts progress at 0 for a new attempt. Partial progress
// from a prior attempt means nothing after a transport-level restart.
func (t *progressTracker) resetAttempt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.percent = 0
}

func (t *progressTracker) setStatus(status domain.DriverStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// read returns the current status and progress.
func (t *progressTracker) read() (domain.DriverStatus, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.percent
}
