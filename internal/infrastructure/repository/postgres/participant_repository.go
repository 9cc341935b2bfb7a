package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/penyablaugrana/porra-pool/internal/domain/participant"
	qb "github.com/penyablaugrana/porra-pool/internal/platform/querybuilder"
)

type ParticipantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Ensure inserts the participant on first contact; on a repeat identity the
// stored record keeps its id and points and only the display name is
// refreshed. The stored row is returned either way.
func (r *ParticipantRepository) Ensure(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	insertModel := participantInsertModel{
		PublicID:         p.ID,
		ExternalIdentity: p.ExternalIdentity,
		DisplayName:      p.DisplayName,
	}
	query, args, err := qb.InsertModel("participants", insertModel, `ON CONFLICT (external_identity)
DO UPDATE SET
    display_name = EXCLUDED.display_name,
    updated_at = NOW()
RETURNING public_id, external_identity, display_name, total_points`)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("build ensure participant query: %w", err)
	}

	var stored participant.Participant
	row := r.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&stored.ID, &stored.ExternalIdentity, &stored.DisplayName, &stored.TotalPoints); err != nil {
		return participant.Participant{}, fmt.Errorf("ensure participant: %w", storeError(err))
	}

	return stored, nil
}

func (r *ParticipantRepository) Leaderboard(ctx context.Context) ([]participant.Standing, error) {
	query, args, err := qb.Select("display_name", "total_points").
		From("participants").
		OrderBy("total_points DESC", "display_name ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build leaderboard query: %w", err)
	}

	var rows []struct {
		DisplayName string `db:"display_name"`
		TotalPoints int    `db:"total_points"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", storeError(err))
	}

	out := make([]participant.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, participant.Standing{
			DisplayName: row.DisplayName,
			TotalPoints: row.TotalPoints,
		})
	}

	return out, nil
}
