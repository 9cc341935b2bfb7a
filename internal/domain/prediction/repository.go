package prediction

import "context"

// Repository describes prediction persistence needs from use cases. Upsert is
// a single atomic insert-or-overwrite keyed by (pool, participant).
type Repository interface {
	Upsert(ctx context.Context, p Prediction) error
	ListEntries(ctx context.Context, poolID string) ([]Entry, error)
}
