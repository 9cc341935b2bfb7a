package pool

import (
	"testing"
	"time"
)

func TestValidateOpponentName(t *testing.T) {
	t.Parallel()

	valid := []string{"Madrid", "Real Sociedad", "Athletic-Club", "L'Hospitalet", "Castella `B`"}
	for _, name := range valid {
		if err := ValidateOpponentName(name); err != nil {
			t.Fatalf("ValidateOpponentName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "Ajax; DROP TABLE", "Bayern!", "PSG\n", "São Paulo"}
	for _, name := range invalid {
		if err := ValidateOpponentName(name); err == nil {
			t.Fatalf("ValidateOpponentName(%q) = nil, want error", name)
		}
	}
}

func TestParseKickoff(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	ts, err := ParseKickoff("25-12-2026 21:00", loc)
	if err != nil {
		t.Fatalf("ParseKickoff: %v", err)
	}
	if ts.Location() != loc {
		t.Fatalf("unexpected location: %v", ts.Location())
	}
	if got := ts.Format(KickoffLayout); got != "25-12-2026 21:00" {
		t.Fatalf("round trip mismatch: %s", got)
	}

	for _, bad := range []string{"2026-12-25 21:00", "25/12/2026 21:00", "25-12-2026", "not a date"} {
		if _, err := ParseKickoff(bad, loc); err == nil {
			t.Fatalf("ParseKickoff(%q) = nil, want error", bad)
		}
	}
}

func TestPool_IsSettled(t *testing.T) {
	t.Parallel()

	p := Pool{ID: "p1", OpponentName: "Madrid", ScheduledAt: time.Now()}
	if p.IsSettled() {
		t.Fatal("open pool reported as settled")
	}

	p.Result = &Result{HomeGoals: 2, AwayGoals: 1}
	if !p.IsSettled() {
		t.Fatal("settled pool reported as open")
	}
}
