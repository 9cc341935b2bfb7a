package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/penyablaugrana/porra-pool/internal/domain/participant"
	"github.com/penyablaugrana/porra-pool/internal/domain/pool"
	"github.com/penyablaugrana/porra-pool/internal/domain/prediction"
	"github.com/penyablaugrana/porra-pool/internal/platform/id"
)

// PredictionService records score predictions against the active pool,
// registering participants on first contact.
type PredictionService struct {
	poolRepo        pool.Repository
	participantRepo participant.Repository
	predictionRepo  prediction.Repository
	idGen           id.Generator
	now             func() time.Time
}

func NewPredictionService(poolRepo pool.Repository, participantRepo participant.Repository, predictionRepo prediction.Repository, idGen id.Generator) *PredictionService {
	return &PredictionService{
		poolRepo:        poolRepo,
		participantRepo: participantRepo,
		predictionRepo:  predictionRepo,
		idGen:           idGen,
		now:             time.Now,
	}
}

// RecordPrediction upserts the caller's guess for the active pool. Rejected
// once kickoff has passed; resubmission overwrites the earlier guess.
func (s *PredictionService) RecordPrediction(ctx context.Context, externalIdentity, displayName string, homeGoals, awayGoals int) (prediction.Prediction, error) {
	externalIdentity = strings.TrimSpace(externalIdentity)
	if externalIdentity == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: external identity is required", ErrInvalidInput)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = externalIdentity
	}
	if homeGoals < 0 || awayGoals < 0 {
		return prediction.Prediction{}, fmt.Errorf("%w: predicted goals cannot be negative", ErrInvalidInput)
	}

	p, exists, err := s.poolRepo.GetActive(ctx)
	if err != nil {
		return prediction.Prediction{}, storeErr("get active pool", err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: no active pool", ErrNotFound)
	}
	if !s.now().Before(p.ScheduledAt) {
		return prediction.Prediction{}, fmt.Errorf("%w: kickoff was %s", ErrDeadlinePassed, p.ScheduledAt.Format(time.RFC3339))
	}

	participantID, err := s.idGen.NewID()
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("generate participant id: %w", err)
	}
	member, err := s.participantRepo.Ensure(ctx, participant.Participant{
		ID:               participantID,
		ExternalIdentity: externalIdentity,
		DisplayName:      displayName,
	})
	if err != nil {
		return prediction.Prediction{}, storeErr("ensure participant", err)
	}

	predictionID, err := s.idGen.NewID()
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("generate prediction id: %w", err)
	}
	bet := prediction.Prediction{
		ID:            predictionID,
		PoolID:        p.ID,
		ParticipantID: member.ID,
		HomeGoals:     homeGoals,
		AwayGoals:     awayGoals,
	}
	if err := s.predictionRepo.Upsert(ctx, bet); err != nil {
		return prediction.Prediction{}, storeErr("upsert prediction", err)
	}

	return bet, nil
}

// ListPredictions returns the display rows for a pool's recorded predictions.
func (s *PredictionService) ListPredictions(ctx context.Context, poolID string) ([]prediction.Entry, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return nil, fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}

	entries, err := s.predictionRepo.ListEntries(ctx, poolID)
	if err != nil {
		return nil, storeErr("list predictions", err)
	}

	return entries, nil
}
