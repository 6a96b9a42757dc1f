package driven

import (
	"context"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

// ProgressSink is a write-only handle through which a running fetch reports
// fractional completion in [0,100]. Implementations are last-value
// registers: intermediate values may be skipped by readers, but the final
// value is always observable once set.
type ProgressSink interface {
	Set(percent float64)
}

// Driver fetches data from exactly one external source for one entity.
// Each driver type (wayback, tavily, crunchbase, ...) implements this
// interface; the orchestration logic is identical across all of them.
//
// Implementations are stateless across invocations: the credential for a
// fetch is supplied per call from the driver's configuration, never held
// by the driver itself.
type Driver interface {
	// Descriptor returns the driver's static identity.
	Descriptor() domain.DriverDescriptor

	// Fetch performs the source lookup for the entity. It makes one
	// outbound call, or a small bounded sequence of calls, and reports
	// progress through the sink at least at start and completion.
	//
	// "No data found" is a successful, usually sparse, result — never an
	// error. Genuine operational failures should be tagged retryable or
	// terminal via domain.Transient/domain.Terminal; untagged errors are
	// treated as retryable.
	Fetch(ctx context.Context, entity domain.Entity, credential string, progress ProgressSink) (map[string]any, error)
}
