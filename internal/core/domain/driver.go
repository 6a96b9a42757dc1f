package domain

import "time"

// DriverStatus is the state of a driver invocation.
//
// Disabled and MissingCredential are reachable only as initial states,
// before any invocation is attempted. Completed and Failed are the only
// states reachable from Running, and both are terminal.
type DriverStatus string

const (
	// StatusIdle means the driver is eligible to run but has not started.
	StatusIdle DriverStatus = "idle"

	// StatusRunning means an invocation is in flight.
	StatusRunning DriverStatus = "running"

	// StatusCompleted means the invocation finished successfully.
	StatusCompleted DriverStatus = "completed"

	// StatusFailed means the invocation finished with an operational error.
	StatusFailed DriverStatus = "failed"

	// StatusDisabled means the driver is switched off in configuration.
	// No invocation is attempted.
	StatusDisabled DriverStatus = "disabled"

	// StatusMissingCredential means the driver requires a credential and
	// none is configured. This is a configuration gap, not an operational
	// error, and must stay distinguishable from StatusFailed.
	StatusMissingCredential DriverStatus = "missing_credential"
)

// Terminal reports whether the status is an end state of an invocation.
func (s DriverStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s.Skipped()
}

// Skipped reports whether the driver was never started because of its
// configuration (disabled or missing credential).
func (s DriverStatus) Skipped() bool {
	return s == StatusDisabled || s == StatusMissingCredential
}

// DriverDescriptor is the static identity of a data source.
// Immutable after registration.
type DriverDescriptor struct {
	// Name is the unique, stable identifier (e.g. "wayback").
	Name string

	// DisplayName is the human-readable label (e.g. "Wayback Machine").
	DisplayName string

	// Description explains what the source provides.
	Description string

	// RequiresCredential is true when the source needs an API key or token.
	RequiresCredential bool
}

// DriverResult is the outcome of one driver invocation. It is owned by the
// invocation that produced it and published to callers only once terminal.
type DriverResult struct {
	// DriverName keys the result in a ResultBundle.
	DriverName string `json:"driver_name"`

	// Status is the terminal state the invocation reached.
	Status DriverStatus `json:"status"`

	// Data is the source-specific payload. The orchestrator never inspects
	// its contents; parsing meaning out of it is a downstream concern.
	Data map[string]any `json:"data,omitempty"`

	// ErrorKind and ErrorMessage are set iff Status is StatusFailed or the
	// driver was skipped (then ErrorKind is KindConfigurationGap).
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`

	// StartedAt and CompletedAt bound the invocation. Zero for drivers that
	// never ran.
	StartedAt   time.Time `json:"started_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`

	// AttemptsUsed counts fetch attempts, including the final one.
	AttemptsUsed int `json:"attempts_used"`

	// ProgressPercent is the final progress value; 100 on success, the last
	// recorded value on failure.
	ProgressPercent float64 `json:"progress_percent"`
}

// Duration returns how long the invocation ran, or zero if it never ran.
func (r DriverResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ResultBundle is the aggregate output of one orchestration run: one
// DriverResult per registered driver, keyed by driver name. Drivers that
// were skipped or failed are present like any other, so callers never have
// to distinguish "missing" from "skipped".
type ResultBundle struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Entity is the research subject the run was for.
	Entity Entity `json:"entity"`

	// Results maps driver name to that driver's terminal result.
	Results map[string]DriverResult `json:"results"`

	// CompletedAt is when the slowest invocation reached a terminal state.
	CompletedAt time.Time `json:"completed_at"`
}

// CountByStatus returns how many results are in the given status.
func (b *ResultBundle) CountByStatus(status DriverStatus) int {
	n := 0
	for _, r := range b.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// RunSummary is a condensed view of a stored run, used for listings.
type RunSummary struct {
	RunID       string
	EntityName  string
	CompletedAt time.Time
	Completed   int
	Failed      int
	Skipped     int
}

// DriverProgress is one driver's point-in-time progress reading.
type DriverProgress struct {
	Status  DriverStatus
	Percent float64
}

// ProgressSnapshot maps driver name to progress for every launched
// invocation of the current run. It is a point-in-time poll, not a stream;
// stale reads are acceptable by design.
type ProgressSnapshot map[string]DriverProgress
