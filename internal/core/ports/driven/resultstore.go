package driven

import (
	"context"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

// ResultStore persists completed research runs.
type ResultStore interface {
	// SaveBundle stores a run and all of its per-driver results.
	SaveBundle(ctx context.Context, bundle *domain.ResultBundle) error

	// GetBundle loads a stored run by ID.
	// Returns domain.ErrNotFound via wrapping if the run does not exist.
	GetBundle(ctx context.Context, runID string) (*domain.ResultBundle, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Close releases the underlying storage.
	Close() error
}
