package pool

import (
	"context"

	"github.com/penyablaugrana/porra-pool/internal/domain/scoring"
)

// Repository describes pool persistence needs from use cases. Create returns
// ErrActiveExists or ErrDuplicateFixture when the corresponding store
// constraint rejects the row.
type Repository interface {
	Create(ctx context.Context, p Pool) error
	GetActive(ctx context.Context) (Pool, bool, error)
	GetByID(ctx context.Context, poolID string) (Pool, bool, error)
	Delete(ctx context.Context, poolID string) (bool, error)
}

// Settler applies a final result to an open pool in one atomic unit: the pool
// row, every prediction's awarded points, and every participant's total. It
// returns the scored rows, or ErrNotFound / ErrAlreadySettled without any
// state change.
type Settler interface {
	Settle(ctx context.Context, poolID string, result Result, score scoring.Func) ([]SettledPrediction, error)
}
