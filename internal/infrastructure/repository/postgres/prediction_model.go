package postgres

type predictionInsertModel struct {
	PublicID      string `db:"public_id"`
	PoolID        string `db:"pool_public_id"`
	ParticipantID string `db:"participant_public_id"`
	HomeGoals     int    `db:"home_goals"`
	AwayGoals     int    `db:"away_goals"`
}
