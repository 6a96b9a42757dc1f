package domain

import "time"

// Default runtime limits applied when a DriverConfig leaves them unset.
const (
	DefaultTimeout     = 60 * time.Second
	DefaultMaxAttempts = 3
)

// DriverConfig is the per-driver runtime configuration. It is constructed
// once from external configuration, stays immutable during a run, and may
// be replaced between runs but never mid-flight.
type DriverConfig struct {
	// Enabled switches the driver on. A disabled driver is never started,
	// regardless of its credential state.
	Enabled bool

	// Credential is the opaque API key or token for the source. Absence
	// when the driver requires one is a configuration fact, not an error.
	Credential string

	// Timeout bounds a single fetch attempt.
	Timeout time.Duration

	// MaxAttempts is the total number of fetch attempts (>= 1).
	MaxAttempts int

	// Priority is an advisory ordering hint for listings and launch order.
	// Higher runs earlier. It never gates concurrency.
	Priority int
}

// Normalised returns a copy with zero limits replaced by defaults.
func (c DriverConfig) Normalised() DriverConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}
