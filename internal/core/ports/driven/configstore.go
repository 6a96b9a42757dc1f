package driven

import (
	"context"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

// ConfigStore loads per-driver configuration from external storage.
type ConfigStore interface {
	// Load reads the current configuration, keyed by driver name.
	// Unknown driver names are preserved; the manager ignores them.
	Load() (map[string]domain.DriverConfig, error)

	// SetCredential stores a credential for the named driver.
	SetCredential(name, credential string) error

	// Watch invokes onChange whenever the underlying configuration
	// changes, until ctx is cancelled. Callers reload via Load and apply
	// the result between runs.
	Watch(ctx context.Context, onChange func()) error

	// Path returns the location of the backing store, for display.
	Path() string
}
