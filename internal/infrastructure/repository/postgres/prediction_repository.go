package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/penyablaugrana/porra-pool/internal/domain/prediction"
	qb "github.com/penyablaugrana/porra-pool/internal/platform/querybuilder"
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Upsert is one atomic insert-or-overwrite on the (pool, participant) key, so
// two simultaneous resubmissions by the same participant cannot interleave.
func (r *PredictionRepository) Upsert(ctx context.Context, p prediction.Prediction) error {
	insertModel := predictionInsertModel{
		PublicID:      p.ID,
		PoolID:        p.PoolID,
		ParticipantID: p.ParticipantID,
		HomeGoals:     p.HomeGoals,
		AwayGoals:     p.AwayGoals,
	}
	query, args, err := qb.InsertModel("predictions", insertModel, `ON CONFLICT (pool_public_id, participant_public_id)
DO UPDATE SET
    home_goals = EXCLUDED.home_goals,
    away_goals = EXCLUDED.away_goals,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert prediction query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert prediction: %w", storeError(err))
	}

	return nil
}

func (r *PredictionRepository) ListEntries(ctx context.Context, poolID string) ([]prediction.Entry, error) {
	query, args, err := qb.Select("pa.display_name", "pr.home_goals", "pr.away_goals").
		From("predictions pr").
		Join("participants pa ON pa.public_id = pr.participant_public_id").
		Where(qb.Eq("pr.pool_public_id", poolID)).
		OrderBy("pa.display_name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions query: %w", err)
	}

	var rows []struct {
		DisplayName string `db:"display_name"`
		HomeGoals   int    `db:"home_goals"`
		AwayGoals   int    `db:"away_goals"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions: %w", storeError(err))
	}

	out := make([]prediction.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, prediction.Entry{
			DisplayName: row.DisplayName,
			HomeGoals:   row.HomeGoals,
			AwayGoals:   row.AwayGoals,
		})
	}

	return out, nil
}
