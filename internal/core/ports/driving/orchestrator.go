package driving

import (
	"context"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

// DriverInfo is one row of a driver listing.
type DriverInfo struct {
	Name               string
	DisplayName        string
	Description        string
	Status             domain.DriverStatus
	RequiresCredential bool
	HasCredential      bool
	Priority           int
}

// Orchestrator coordinates concurrent multi-source research runs.
type Orchestrator interface {
	// SetConfigs replaces the per-driver configuration. Rejected with
	// domain.ErrRunInProgress while a run is in flight; configuration is
	// fixed for the duration of a run.
	SetConfigs(configs map[string]domain.DriverConfig) error

	// ListDrivers returns every registered driver with its static status
	// (disabled, missing_credential or idle), independent of any in-flight
	// run. Priority-ordered.
	ListDrivers() []DriverInfo

	// RunAll launches every eligible driver concurrently and blocks until
	// each reaches a terminal state. The bundle contains exactly one
	// result per registered driver, skipped drivers included. It fails
	// only on manager misconfiguration or an invalid entity, never because
	// a driver failed.
	RunAll(ctx context.Context, entity domain.Entity) (*domain.ResultBundle, error)

	// RunSingle runs one named driver through the same machinery.
	// Returns domain.ErrDriverNotFound for unknown names.
	RunSingle(ctx context.Context, driverName string, entity domain.Entity) (*domain.DriverResult, error)

	// AggregateProgress returns the mean progress in [0,100] across the
	// current run's launched invocations. Cheap, stale-read tolerant; for
	// display only.
	AggregateProgress() float64

	// Snapshot returns per-driver status and progress for the current run.
	Snapshot() domain.ProgressSnapshot
}
