package participant

import "context"

// Repository describes participant persistence needs from use cases. Ensure
// inserts the record on first contact and refreshes the display name on later
// ones, returning the stored row either way.
type Repository interface {
	Ensure(ctx context.Context, p Participant) (Participant, error)
	Leaderboard(ctx context.Context) ([]Standing, error)
}
