package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/penyablaugrana/porra-pool/internal/domain/pool"
	"github.com/penyablaugrana/porra-pool/internal/domain/prediction"
	"github.com/penyablaugrana/porra-pool/internal/platform/id"
)

// PoolService owns the pool lifecycle up to settlement: opening under the
// single-active-pool rule, the active-pool snapshot, and cancellation.
type PoolService struct {
	poolRepo       pool.Repository
	predictionRepo prediction.Repository
	idGen          id.Generator
	loc            *time.Location
}

func NewPoolService(poolRepo pool.Repository, predictionRepo prediction.Repository, idGen id.Generator, loc *time.Location) *PoolService {
	if loc == nil {
		loc = time.UTC
	}
	return &PoolService{
		poolRepo:       poolRepo,
		predictionRepo: predictionRepo,
		idGen:          idGen,
		loc:            loc,
	}
}

// OpenPool validates the fixture and persists a new open pool. The kickoff
// string is interpreted in the service's location and stored as an absolute
// timestamp.
func (s *PoolService) OpenPool(ctx context.Context, opponentName, kickoff string, homeMatch bool) (pool.Pool, error) {
	opponentName = strings.TrimSpace(opponentName)
	if err := pool.ValidateOpponentName(opponentName); err != nil {
		return pool.Pool{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	scheduledAt, err := pool.ParseKickoff(strings.TrimSpace(kickoff), s.loc)
	if err != nil {
		return pool.Pool{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	poolID, err := s.idGen.NewID()
	if err != nil {
		return pool.Pool{}, fmt.Errorf("generate pool id: %w", err)
	}

	p := pool.Pool{
		ID:           poolID,
		OpponentName: opponentName,
		ScheduledAt:  scheduledAt.UTC(),
		HomeMatch:    homeMatch,
	}
	if err := s.poolRepo.Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, pool.ErrActiveExists):
			return pool.Pool{}, fmt.Errorf("%w: opponent=%s", ErrActivePoolExists, opponentName)
		case errors.Is(err, pool.ErrDuplicateFixture):
			return pool.Pool{}, fmt.Errorf("%w: opponent=%s kickoff=%s", ErrDuplicateFixture, opponentName, kickoff)
		default:
			return pool.Pool{}, storeErr("create pool", err)
		}
	}

	return p, nil
}

// ActivePool returns the single open pool, if any.
func (s *PoolService) ActivePool(ctx context.Context) (pool.Pool, bool, error) {
	p, exists, err := s.poolRepo.GetActive(ctx)
	if err != nil {
		return pool.Pool{}, false, storeErr("get active pool", err)
	}

	return p, exists, nil
}

// ActivePoolSnapshot returns the open pool together with every prediction
// recorded so far. Fails with ErrNotFound when no pool is open.
func (s *PoolService) ActivePoolSnapshot(ctx context.Context) (pool.Pool, []prediction.Entry, error) {
	p, exists, err := s.ActivePool(ctx)
	if err != nil {
		return pool.Pool{}, nil, err
	}
	if !exists {
		return pool.Pool{}, nil, fmt.Errorf("%w: no active pool", ErrNotFound)
	}

	entries, err := s.predictionRepo.ListEntries(ctx, p.ID)
	if err != nil {
		return pool.Pool{}, nil, storeErr("list predictions", err)
	}

	return p, entries, nil
}

// CancelPool deletes the pool and all of its predictions in one atomic unit.
func (s *PoolService) CancelPool(ctx context.Context, poolID string) error {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}

	deleted, err := s.poolRepo.Delete(ctx, poolID)
	if err != nil {
		return storeErr("delete pool", err)
	}
	if !deleted {
		return fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}

	return nil
}
