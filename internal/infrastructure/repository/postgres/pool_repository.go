package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/penyablaugrana/porra-pool/internal/domain/pool"
	"github.com/penyablaugrana/porra-pool/internal/domain/scoring"
	qb "github.com/penyablaugrana/porra-pool/internal/platform/querybuilder"
)

// Index/constraint names from db/migrations, used to translate unique
// violations into domain errors.
const (
	poolsSingleActiveIndex = "pools_single_active_open"
	poolsFixtureUnique     = "pools_fixture_unique"
)

type PoolRepository struct {
	db *sqlx.DB
}

func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

func (r *PoolRepository) Create(ctx context.Context, p pool.Pool) error {
	insertModel := poolInsertModel{
		PublicID:     p.ID,
		OpponentName: p.OpponentName,
		ScheduledAt:  p.ScheduledAt,
		HomeMatch:    p.HomeMatch,
	}
	query, args, err := qb.InsertModel("pools", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert pool query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		switch uniqueViolationConstraint(err) {
		case poolsSingleActiveIndex:
			return pool.ErrActiveExists
		case poolsFixtureUnique:
			return pool.ErrDuplicateFixture
		}
		return fmt.Errorf("insert pool: %w", storeError(err))
	}

	return nil
}

func (r *PoolRepository) GetActive(ctx context.Context) (pool.Pool, bool, error) {
	query, args, err := qb.Select("*").From("pools").
		Where(qb.IsNull("result_home")).
		ToSQL()
	if err != nil {
		return pool.Pool{}, false, fmt.Errorf("build get active pool query: %w", err)
	}

	var row poolTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pool.Pool{}, false, nil
		}
		return pool.Pool{}, false, fmt.Errorf("get active pool: %w", storeError(err))
	}

	return poolToDomain(row), true, nil
}

func (r *PoolRepository) GetByID(ctx context.Context, poolID string) (pool.Pool, bool, error) {
	query, args, err := qb.Select("*").From("pools").
		Where(qb.Eq("public_id", poolID)).
		ToSQL()
	if err != nil {
		return pool.Pool{}, false, fmt.Errorf("build get pool by id query: %w", err)
	}

	var row poolTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pool.Pool{}, false, nil
		}
		return pool.Pool{}, false, fmt.Errorf("get pool by id: %w", storeError(err))
	}

	return poolToDomain(row), true, nil
}

// Delete removes the pool row; predictions go with it through the cascading
// foreign key.
func (r *PoolRepository) Delete(ctx context.Context, poolID string) (bool, error) {
	query, args, err := qb.DeleteFrom("pools").
		Where(qb.Eq("public_id", poolID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete pool query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete pool: %w", storeError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete pool rows affected: %w", err)
	}

	return affected > 0, nil
}

type settlementRowModel struct {
	PredictionID  int64  `db:"id"`
	ParticipantID string `db:"participant_public_id"`
	DisplayName   string `db:"display_name"`
	HomeGoals     int    `db:"home_goals"`
	AwayGoals     int    `db:"away_goals"`
}

// Settle commits the result write, every prediction's points and every
// participant's running total in one transaction. The guarded UPDATE on the
// open pool row keeps a second concurrent settlement from ever scoring.
func (r *PoolRepository) Settle(ctx context.Context, poolID string, result pool.Result, score scoring.Func) ([]pool.SettledPrediction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settle tx: %w", storeError(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	closeQuery, closeArgs, err := qb.Update("pools").
		Set("result_home", result.HomeGoals).
		Set("result_away", result.AwayGoals).
		SetExpr("settled_at", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", poolID),
			qb.IsNull("result_home"),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build close pool query: %w", err)
	}
	res, err := tx.ExecContext(ctx, closeQuery, closeArgs...)
	if err != nil {
		return nil, fmt.Errorf("close pool: %w", storeError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("close pool rows affected: %w", err)
	}
	if affected == 0 {
		existsQuery, existsArgs, err := qb.Select("id").From("pools").
			Where(qb.Eq("public_id", poolID)).
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build pool exists query: %w", err)
		}
		var id int64
		if err := tx.GetContext(ctx, &id, existsQuery, existsArgs...); err != nil {
			if isNotFound(err) {
				return nil, pool.ErrNotFound
			}
			return nil, fmt.Errorf("check pool exists: %w", storeError(err))
		}
		return nil, pool.ErrAlreadySettled
	}

	rowsQuery, rowsArgs, err := qb.Select("pr.id", "pr.participant_public_id", "pa.display_name", "pr.home_goals", "pr.away_goals").
		From("predictions pr").
		Join("participants pa ON pa.public_id = pr.participant_public_id").
		Where(qb.Eq("pr.pool_public_id", poolID)).
		OrderBy("pr.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build settlement rows query: %w", err)
	}
	rowsQuery += " FOR UPDATE OF pr"

	var rows []settlementRowModel
	if err := tx.SelectContext(ctx, &rows, rowsQuery, rowsArgs...); err != nil {
		return nil, fmt.Errorf("select settlement rows: %w", storeError(err))
	}

	report := make([]pool.SettledPrediction, 0, len(rows))
	for _, row := range rows {
		points := score(row.HomeGoals, row.AwayGoals, result.HomeGoals, result.AwayGoals)

		pointsQuery, pointsArgs, err := qb.Update("predictions").
			Set("points_awarded", points).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", row.PredictionID)).
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build award points query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, pointsQuery, pointsArgs...); err != nil {
			return nil, fmt.Errorf("award points: %w", storeError(err))
		}

		totalQuery, totalArgs, err := qb.Update("participants").
			SetExpr("total_points", "total_points + ?", points).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("public_id", row.ParticipantID)).
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build accumulate points query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, totalQuery, totalArgs...); err != nil {
			return nil, fmt.Errorf("accumulate points: %w", storeError(err))
		}

		report = append(report, pool.SettledPrediction{
			DisplayName:   row.DisplayName,
			HomeGoals:     row.HomeGoals,
			AwayGoals:     row.AwayGoals,
			PointsAwarded: points,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settle tx: %w", storeError(err))
	}

	return report, nil
}
