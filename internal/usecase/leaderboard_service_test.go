package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/penyablaugrana/porra-pool/internal/domain/participant"
	"github.com/penyablaugrana/porra-pool/internal/platform/cache"
)

func TestLeaderboardService_Leaderboard_Ordering(t *testing.T) {
	t.Parallel()

	participants := newStubParticipantRepository()
	participants.byIdentity["tg:1"] = participant.Participant{ID: "u1", ExternalIdentity: "tg:1", DisplayName: "pere", TotalPoints: 5}
	participants.byIdentity["tg:2"] = participant.Participant{ID: "u2", ExternalIdentity: "tg:2", DisplayName: "anna", TotalPoints: 5}
	participants.byIdentity["tg:3"] = participant.Participant{ID: "u3", ExternalIdentity: "tg:3", DisplayName: "marta", TotalPoints: 9}

	service := NewLeaderboardService(participants, nil)

	standings, err := service.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard error: %v", err)
	}

	want := []participant.Standing{
		{DisplayName: "marta", TotalPoints: 9},
		{DisplayName: "anna", TotalPoints: 5},
		{DisplayName: "pere", TotalPoints: 5},
	}
	if len(standings) != len(want) {
		t.Fatalf("unexpected standings length: %d", len(standings))
	}
	for i := range want {
		if standings[i] != want[i] {
			t.Fatalf("row %d: got %+v, want %+v", i, standings[i], want[i])
		}
	}
}

func TestLeaderboardService_Leaderboard_CachesUntilInvalidated(t *testing.T) {
	t.Parallel()

	participants := newStubParticipantRepository()
	participants.byIdentity["tg:1"] = participant.Participant{ID: "u1", ExternalIdentity: "tg:1", DisplayName: "anna", TotalPoints: 3}

	store := cache.NewStore(time.Minute)
	service := NewLeaderboardService(participants, store)

	ctx := context.Background()
	first, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("first Leaderboard error: %v", err)
	}
	if len(first) != 1 || first[0].TotalPoints != 3 {
		t.Fatalf("unexpected standings: %+v", first)
	}

	member := participants.byIdentity["tg:1"]
	member.TotalPoints = 6
	participants.byIdentity["tg:1"] = member

	cached, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("cached Leaderboard error: %v", err)
	}
	if cached[0].TotalPoints != 3 {
		t.Fatalf("expected cached standings, got %+v", cached)
	}

	service.Invalidate(ctx)

	fresh, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("fresh Leaderboard error: %v", err)
	}
	if fresh[0].TotalPoints != 6 {
		t.Fatalf("expected reloaded standings, got %+v", fresh)
	}
}
