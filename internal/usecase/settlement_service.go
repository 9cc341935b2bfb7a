package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/penyablaugrana/porra-pool/internal/domain/pool"
	"github.com/penyablaugrana/porra-pool/internal/domain/scoring"
	"github.com/penyablaugrana/porra-pool/internal/platform/logging"
)

// Announcer pushes a settlement report to the group channel.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// SettlementService closes a pool with its final result: one atomic store
// operation scores every prediction and accumulates participant totals, then
// the ranked report is published.
type SettlementService struct {
	settler     pool.Settler
	poolRepo    pool.Repository
	leaderboard *LeaderboardService
	announcer   Announcer
	score       scoring.Func
	logger      *logging.Logger
}

func NewSettlementService(settler pool.Settler, poolRepo pool.Repository, leaderboard *LeaderboardService, announcer Announcer, logger *logging.Logger) *SettlementService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SettlementService{
		settler:     settler,
		poolRepo:    poolRepo,
		leaderboard: leaderboard,
		announcer:   announcer,
		score:       scoring.Points,
		logger:      logger,
	}
}

// Settle writes the final result and returns the report rows sorted by points
// awarded descending, then display name ascending. A second call for the same
// pool fails with ErrPoolSettled and changes nothing.
func (s *SettlementService) Settle(ctx context.Context, poolID string, homeGoals, awayGoals int) ([]pool.SettledPrediction, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return nil, fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}
	if homeGoals < 0 || awayGoals < 0 {
		return nil, fmt.Errorf("%w: goals cannot be negative", ErrInvalidInput)
	}

	result := pool.Result{HomeGoals: homeGoals, AwayGoals: awayGoals}
	report, err := s.settler.Settle(ctx, poolID, result, s.score)
	if err != nil {
		switch {
		case errors.Is(err, pool.ErrNotFound):
			return nil, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
		case errors.Is(err, pool.ErrAlreadySettled):
			return nil, fmt.Errorf("%w: pool=%s", ErrPoolSettled, poolID)
		default:
			return nil, storeErr("settle pool", err)
		}
	}

	sort.SliceStable(report, func(i, j int) bool {
		if report[i].PointsAwarded != report[j].PointsAwarded {
			return report[i].PointsAwarded > report[j].PointsAwarded
		}
		return report[i].DisplayName < report[j].DisplayName
	})

	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
	s.announce(ctx, poolID, result, report)

	return report, nil
}

// announce is best effort: a publish failure never fails the settlement,
// which has already committed.
func (s *SettlementService) announce(ctx context.Context, poolID string, result pool.Result, report []pool.SettledPrediction) {
	if s.announcer == nil {
		return
	}

	text := s.buildReportText(ctx, poolID, result, report)
	if err := s.announcer.Announce(ctx, text); err != nil {
		s.logger.WarnContext(ctx, "announce settlement report", "pool_id", poolID, "error", err)
	}
}

func (s *SettlementService) buildReportText(ctx context.Context, poolID string, result pool.Result, report []pool.SettledPrediction) string {
	var b strings.Builder

	header := fmt.Sprintf("Final result %d-%d", result.HomeGoals, result.AwayGoals)
	if p, exists, err := s.poolRepo.GetByID(ctx, poolID); err == nil && exists {
		side := "away"
		if p.HomeMatch {
			side = "home"
		}
		header = fmt.Sprintf("%s (%s) %d-%d", p.OpponentName, side, result.HomeGoals, result.AwayGoals)
	}
	b.WriteString(header)
	b.WriteString("\n")

	if len(report) == 0 {
		b.WriteString("No predictions were recorded.")
		return b.String()
	}

	for i, row := range report {
		fmt.Fprintf(&b, "%d. %s (%d-%d): %d pts\n", i+1, row.DisplayName, row.HomeGoals, row.AwayGoals, row.PointsAwarded)
	}

	return strings.TrimRight(b.String(), "\n")
}
