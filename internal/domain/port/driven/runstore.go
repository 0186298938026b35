package driven

import (
	"context"

	"github.com/ericfisherdev/envpush/internal/domain/model"
)

// RunStore defines the driven port for the run history. Only outcomes are
// stored; tokens and item values never reach it.
type RunStore interface {
	// Save inserts a finished run together with its result log. Saving the
	// same run id twice replaces the earlier record.
	Save(ctx context.Context, run model.RunSnapshot) error

	// Get returns a single run, or (nil, nil) if it does not exist.
	Get(ctx context.Context, id string) (*model.RunSnapshot, error)

	// ListRecent returns up to limit runs, newest first, with their result logs.
	ListRecent(ctx context.Context, limit int) ([]model.RunSnapshot, error)
}
