package postgres

type participantInsertModel struct {
	PublicID         string `db:"public_id"`
	ExternalIdentity string `db:"external_identity"`
	DisplayName      string `db:"display_name"`
}
