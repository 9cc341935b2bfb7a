package postgres

import (
	"database/sql"
	"time"

	"github.com/penyablaugrana/porra-pool/internal/domain/pool"
)

type poolTableModel struct {
	ID           int64         `db:"id"`
	PublicID     string        `db:"public_id"`
	OpponentName string        `db:"opponent_name"`
	ScheduledAt  time.Time     `db:"scheduled_at"`
	HomeMatch    bool          `db:"home_match"`
	ResultHome   sql.NullInt64 `db:"result_home"`
	ResultAway   sql.NullInt64 `db:"result_away"`
	SettledAt    *time.Time    `db:"settled_at"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

type poolInsertModel struct {
	PublicID     string    `db:"public_id"`
	OpponentName string    `db:"opponent_name"`
	ScheduledAt  time.Time `db:"scheduled_at"`
	HomeMatch    bool      `db:"home_match"`
}

func poolToDomain(row poolTableModel) pool.Pool {
	p := pool.Pool{
		ID:           row.PublicID,
		OpponentName: row.OpponentName,
		ScheduledAt:  row.ScheduledAt.UTC(),
		HomeMatch:    row.HomeMatch,
		SettledAt:    row.SettledAt,
		CreatedAt:    row.CreatedAt,
	}
	if row.ResultHome.Valid && row.ResultAway.Valid {
		p.Result = &pool.Result{
			HomeGoals: int(row.ResultHome.Int64),
			AwayGoals: int(row.ResultAway.Int64),
		}
	}
	return p
}
