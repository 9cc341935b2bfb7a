package pool

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrActiveExists     = errors.New("an active pool already exists")
	ErrDuplicateFixture = errors.New("fixture already recorded")
	ErrAlreadySettled   = errors.New("pool is already settled")
	ErrNotFound         = errors.New("pool not found")
)

// KickoffLayout is the date format accepted from callers, 24-hour clock with
// minute granularity.
const KickoffLayout = "02-01-2006 15:04"

var opponentNamePattern = regexp.MustCompile("^[a-zA-Z0-9 '`-]+$")

// Result is a final score. A pool without one is still open.
type Result struct {
	HomeGoals int
	AwayGoals int
}

func (r Result) Validate() error {
	if r.HomeGoals < 0 || r.AwayGoals < 0 {
		return fmt.Errorf("goals cannot be negative")
	}
	return nil
}

// Pool is one open prediction round tied to a single match.
type Pool struct {
	ID           string
	OpponentName string
	ScheduledAt  time.Time
	HomeMatch    bool
	Result       *Result
	SettledAt    *time.Time
	CreatedAt    time.Time
}

func (p Pool) IsSettled() bool {
	return p.Result != nil
}

func (p Pool) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("pool id is required")
	}
	if err := ValidateOpponentName(p.OpponentName); err != nil {
		return err
	}
	if p.ScheduledAt.IsZero() {
		return fmt.Errorf("pool kickoff time is required")
	}
	if p.Result != nil {
		return p.Result.Validate()
	}

	return nil
}

// ValidateOpponentName accepts alphanumerics, spaces, hyphens, apostrophes
// and backticks.
func ValidateOpponentName(name string) error {
	if name == "" {
		return fmt.Errorf("opponent name is required")
	}
	if !opponentNamePattern.MatchString(name) {
		return fmt.Errorf("opponent name contains invalid characters")
	}
	return nil
}

// ParseKickoff interprets a dd-mm-yyyy hh:mm string in the given location.
func ParseKickoff(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	ts, err := time.ParseInLocation(KickoffLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid kickoff date %q, expected dd-mm-yyyy hh:mm", value)
	}
	return ts, nil
}

// SettledPrediction is one scored row of a settlement report.
type SettledPrediction struct {
	DisplayName   string
	HomeGoals     int
	AwayGoals     int
	PointsAwarded int
}
