package prediction

import "fmt"

// Prediction is one participant's guessed score for a pool's match. At most
// one exists per (pool, participant) pair; resubmission overwrites it.
type Prediction struct {
	ID            string
	PoolID        string
	ParticipantID string
	HomeGoals     int
	AwayGoals     int
	PointsAwarded *int
}

func (p Prediction) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prediction id is required")
	}
	if p.PoolID == "" {
		return fmt.Errorf("prediction pool id is required")
	}
	if p.ParticipantID == "" {
		return fmt.Errorf("prediction participant id is required")
	}
	if p.HomeGoals < 0 || p.AwayGoals < 0 {
		return fmt.Errorf("predicted goals cannot be negative")
	}

	return nil
}

// Entry is a prediction joined with its participant's display name.
type Entry struct {
	DisplayName string
	HomeGoals   int
	AwayGoals   int
}
