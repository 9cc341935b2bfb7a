package participant

import "fmt"

// Participant maps a stable external identity to an internal record with a
// running point total.
type Participant struct {
	ID               string
	ExternalIdentity string
	DisplayName      string
	TotalPoints      int
}

func (p Participant) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("participant id is required")
	}
	if p.ExternalIdentity == "" {
		return fmt.Errorf("participant external identity is required")
	}
	if p.DisplayName == "" {
		return fmt.Errorf("participant display name is required")
	}
	if p.TotalPoints < 0 {
		return fmt.Errorf("participant total points cannot be negative")
	}

	return nil
}

// Standing is one leaderboard row.
type Standing struct {
	DisplayName string
	TotalPoints int
}
