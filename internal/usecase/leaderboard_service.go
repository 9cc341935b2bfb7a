package usecase

import (
	"context"
	"fmt"

	"github.com/penyablaugrana/porra-pool/internal/domain/participant"
	"github.com/penyablaugrana/porra-pool/internal/platform/cache"
)

const leaderboardCacheKey = "leaderboard:standings"

// LeaderboardService serves the ranked standings, optionally cached between
// settlements.
type LeaderboardService struct {
	participantRepo participant.Repository
	store           *cache.Store
}

func NewLeaderboardService(participantRepo participant.Repository, store *cache.Store) *LeaderboardService {
	return &LeaderboardService{
		participantRepo: participantRepo,
		store:           store,
	}
}

// Leaderboard returns standings ordered by total points descending, then
// display name ascending.
func (s *LeaderboardService) Leaderboard(ctx context.Context) ([]participant.Standing, error) {
	value, err := s.store.GetOrLoad(ctx, leaderboardCacheKey, func(ctx context.Context) (any, error) {
		standings, err := s.participantRepo.Leaderboard(ctx)
		if err != nil {
			return nil, storeErr("load leaderboard", err)
		}
		return standings, nil
	})
	if err != nil {
		return nil, err
	}

	standings, ok := value.([]participant.Standing)
	if !ok {
		return nil, fmt.Errorf("unexpected leaderboard cache value %T", value)
	}

	return standings, nil
}

// Invalidate drops the cached standings so the next read reflects freshly
// settled points.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	s.store.Delete(ctx, leaderboardCacheKey)
}
