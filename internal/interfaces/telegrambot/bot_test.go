package telegrambot

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/penyablaugrana/porra-pool/internal/domain/participant"
	"github.com/penyablaugrana/porra-pool/internal/domain/pool"
	"github.com/penyablaugrana/porra-pool/internal/domain/prediction"
	"github.com/penyablaugrana/porra-pool/internal/domain/scoring"
	"github.com/penyablaugrana/porra-pool/internal/platform/logging"
	"github.com/penyablaugrana/porra-pool/internal/usecase"
)

const (
	testGroupID = int64(-100)
	adminUserID = int64(1)
	plainUserID = int64(2)
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *recordingSender) lastText(t *testing.T) string {
	t.Helper()
	if len(s.sent) == 0 {
		t.Fatalf("expected a reply, got none")
	}
	return s.sent[len(s.sent)-1].Text
}

type botPoolRepository struct {
	pools map[string]pool.Pool
}

func (r *botPoolRepository) Create(_ context.Context, p pool.Pool) error {
	for _, existing := range r.pools {
		if !existing.IsSettled() {
			return pool.ErrActiveExists
		}
		if existing.OpponentName == p.OpponentName && existing.ScheduledAt.Equal(p.ScheduledAt) {
			return pool.ErrDuplicateFixture
		}
	}
	r.pools[p.ID] = p
	return nil
}

func (r *botPoolRepository) GetActive(_ context.Context) (pool.Pool, bool, error) {
	for _, p := range r.pools {
		if !p.IsSettled() {
			return p, true, nil
		}
	}
	return pool.Pool{}, false, nil
}

func (r *botPoolRepository) GetByID(_ context.Context, id string) (pool.Pool, bool, error) {
	p, ok := r.pools[id]
	return p, ok, nil
}

func (r *botPoolRepository) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.pools[id]; !ok {
		return false, nil
	}
	delete(r.pools, id)
	return true, nil
}

type botParticipantRepository struct {
	byIdentity map[string]participant.Participant
}

func (r *botParticipantRepository) Ensure(_ context.Context, p participant.Participant) (participant.Participant, error) {
	if existing, ok := r.byIdentity[p.ExternalIdentity]; ok {
		existing.DisplayName = p.DisplayName
		r.byIdentity[p.ExternalIdentity] = existing
		return existing, nil
	}
	r.byIdentity[p.ExternalIdentity] = p
	return p, nil
}

func (r *botParticipantRepository) Leaderboard(_ context.Context) ([]participant.Standing, error) {
	standings := make([]participant.Standing, 0, len(r.byIdentity))
	for _, p := range r.byIdentity {
		standings = append(standings, participant.Standing{DisplayName: p.DisplayName, TotalPoints: p.TotalPoints})
	}
	return standings, nil
}

type botPredictionRepository struct {
	byKey        map[string]prediction.Prediction
	participants *botParticipantRepository
}

func (r *botPredictionRepository) displayName(participantID string) string {
	for _, p := range r.participants.byIdentity {
		if p.ID == participantID {
			return p.DisplayName
		}
	}
	return participantID
}

func (r *botPredictionRepository) Upsert(_ context.Context, p prediction.Prediction) error {
	r.byKey[p.PoolID+"|"+p.ParticipantID] = p
	return nil
}

func (r *botPredictionRepository) ListEntries(_ context.Context, poolID string) ([]prediction.Entry, error) {
	var entries []prediction.Entry
	for key, p := range r.byKey {
		if !strings.HasPrefix(key, poolID+"|") {
			continue
		}
		entries = append(entries, prediction.Entry{
			DisplayName: r.displayName(p.ParticipantID),
			HomeGoals:   p.HomeGoals,
			AwayGoals:   p.AwayGoals,
		})
	}
	return entries, nil
}

// botSettler scores the stored predictions in memory so the full /tancar flow
// can run without a database.
type botSettler struct {
	pools        *botPoolRepository
	participants *botParticipantRepository
	predictions  *botPredictionRepository
}

func (s *botSettler) Settle(_ context.Context, poolID string, result pool.Result, score scoring.Func) ([]pool.SettledPrediction, error) {
	p, ok := s.pools.pools[poolID]
	if !ok {
		return nil, pool.ErrNotFound
	}
	if p.IsSettled() {
		return nil, pool.ErrAlreadySettled
	}

	p.Result = &result
	now := time.Now()
	p.SettledAt = &now
	s.pools.pools[poolID] = p

	var report []pool.SettledPrediction
	for key, bet := range s.predictions.byKey {
		if !strings.HasPrefix(key, poolID+"|") {
			continue
		}
		points := score(bet.HomeGoals, bet.AwayGoals, result.HomeGoals, result.AwayGoals)
		for identity, member := range s.participants.byIdentity {
			if member.ID == bet.ParticipantID {
				member.TotalPoints += points
				s.participants.byIdentity[identity] = member
				report = append(report, pool.SettledPrediction{
					DisplayName:   member.DisplayName,
					HomeGoals:     bet.HomeGoals,
					AwayGoals:     bet.AwayGoals,
					PointsAwarded: points,
				})
			}
		}
	}
	return report, nil
}

type botIDGenerator struct {
	n int
}

func (g *botIDGenerator) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("bot-id-%04d", g.n), nil
}

func newTestBot(t *testing.T) (*Bot, *recordingSender) {
	t.Helper()

	poolRepo := &botPoolRepository{pools: make(map[string]pool.Pool)}
	participantRepo := &botParticipantRepository{byIdentity: make(map[string]participant.Participant)}
	predictionRepo := &botPredictionRepository{
		byKey:        make(map[string]prediction.Prediction),
		participants: participantRepo,
	}
	idGen := &botIDGenerator{}

	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	poolService := usecase.NewPoolService(poolRepo, predictionRepo, idGen, loc)
	predictionService := usecase.NewPredictionService(poolRepo, participantRepo, predictionRepo, idGen)
	leaderboardService := usecase.NewLeaderboardService(participantRepo, nil)
	settler := &botSettler{pools: poolRepo, participants: participantRepo, predictions: predictionRepo}
	settlementService := usecase.NewSettlementService(settler, poolRepo, leaderboardService, nil, logging.NewNop())

	sender := &recordingSender{}
	bot := &Bot{
		sender:      sender,
		pools:       poolService,
		predictions: predictionService,
		settlements: settlementService,
		leaderboard: leaderboardService,
		groupID:     testGroupID,
		admins:      map[int64]struct{}{adminUserID: {}},
		loc:         loc,
		logger:      logging.NewNop(),
	}
	return bot, sender
}

func commandMessage(chatID, userID int64, username, text string) *tgbotapi.Message {
	length := len(text)
	if idx := strings.IndexByte(text, ' '); idx > 0 {
		length = idx
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: userID, UserName: username},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func futureKickoff() string {
	return time.Now().Add(48 * time.Hour).Format(pool.KickoffLayout)
}

type downBotPoolRepository struct {
	*botPoolRepository
	err error
}

func (r *downBotPoolRepository) GetActive(context.Context) (pool.Pool, bool, error) {
	return pool.Pool{}, false, r.err
}

func TestBot_StoreDownReply(t *testing.T) {
	bot, sender := newTestBot(t)

	participantRepo := &botParticipantRepository{byIdentity: make(map[string]participant.Participant)}
	poolRepo := &downBotPoolRepository{
		botPoolRepository: &botPoolRepository{pools: make(map[string]pool.Pool)},
		err:               driver.ErrBadConn,
	}
	predictionRepo := &botPredictionRepository{
		byKey:        make(map[string]prediction.Prediction),
		participants: participantRepo,
	}
	bot.pools = usecase.NewPoolService(poolRepo, predictionRepo, &botIDGenerator{}, bot.loc)

	bot.HandleMessage(context.Background(), commandMessage(testGroupID, plainUserID, "anna", "/consultar"))
	if got := sender.lastText(t); !strings.Contains(got, "La base de dades no respon") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestBot_IgnoresOtherChats(t *testing.T) {
	bot, sender := newTestBot(t)

	bot.HandleMessage(context.Background(), commandMessage(12345, adminUserID, "admin", "/consultar"))
	if len(sender.sent) != 0 {
		t.Fatalf("expected no reply for foreign chat, got %d", len(sender.sent))
	}
}

func TestBot_NovaRequiresAdmin(t *testing.T) {
	bot, sender := newTestBot(t)

	bot.HandleMessage(context.Background(), commandMessage(testGroupID, plainUserID, "anna",
		"/nova Madrid;casa;"+futureKickoff()))
	if got := sender.lastText(t); !strings.Contains(got, "administradors") {
		t.Fatalf("expected admin rejection, got %q", got)
	}
}

func TestBot_NovaOpensPool(t *testing.T) {
	bot, sender := newTestBot(t)

	bot.HandleMessage(context.Background(), commandMessage(testGroupID, adminUserID, "admin",
		"/nova Madrid;casa;"+futureKickoff()))
	got := sender.lastText(t)
	if !strings.Contains(got, "Porra oberta") || !strings.Contains(got, "Barça - Madrid") {
		t.Fatalf("unexpected reply: %q", got)
	}

	bot.HandleMessage(context.Background(), commandMessage(testGroupID, adminUserID, "admin",
		"/nova Girona;fora;"+futureKickoff()))
	if got := sender.lastText(t); !strings.Contains(got, "Ja hi ha una porra activa") {
		t.Fatalf("expected active pool conflict, got %q", got)
	}
}

func TestBot_NovaRejectsBadVenue(t *testing.T) {
	bot, sender := newTestBot(t)

	bot.HandleMessage(context.Background(), commandMessage(testGroupID, adminUserID, "admin",
		"/nova Madrid;neutral;"+futureKickoff()))
	if got := sender.lastText(t); !strings.Contains(got, "casa o fora") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestBot_ApostarRecordsAndShows(t *testing.T) {
	bot, sender := newTestBot(t)
	ctx := context.Background()

	bot.HandleMessage(ctx, commandMessage(testGroupID, adminUserID, "admin",
		"/nova Madrid;casa;"+futureKickoff()))

	bot.HandleMessage(ctx, commandMessage(testGroupID, plainUserID, "anna", "/apostar 2-1"))
	if got := sender.lastText(t); !strings.Contains(got, "Aposta registrada: 2-1") {
		t.Fatalf("unexpected reply: %q", got)
	}

	// Bare /apostar falls back to the active pool view.
	bot.HandleMessage(ctx, commandMessage(testGroupID, plainUserID, "anna", "/apostar"))
	if got := sender.lastText(t); !strings.Contains(got, "Porra activa") {
		t.Fatalf("unexpected reply: %q", got)
	}

	bot.HandleMessage(ctx, commandMessage(testGroupID, plainUserID, "anna", "/apostar dos-u"))
	if got := sender.lastText(t); !strings.Contains(got, "Format: /apostar") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestBot_ApostarWithoutPool(t *testing.T) {
	bot, sender := newTestBot(t)

	bot.HandleMessage(context.Background(), commandMessage(testGroupID, plainUserID, "anna", "/apostar 2-1"))
	if got := sender.lastText(t); !strings.Contains(got, "No hi ha cap porra activa") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestBot_TancarSettlesAndReports(t *testing.T) {
	bot, sender := newTestBot(t)
	ctx := context.Background()

	bot.HandleMessage(ctx, commandMessage(testGroupID, adminUserID, "admin",
		"/nova Madrid;casa;"+futureKickoff()))
	bot.HandleMessage(ctx, commandMessage(testGroupID, plainUserID, "anna", "/apostar 3-1"))

	bot.HandleMessage(ctx, commandMessage(testGroupID, adminUserID, "admin", "/tancar 3-1"))
	got := sender.lastText(t)
	if !strings.Contains(got, "Porra tancada") || !strings.Contains(got, "anna (3-1): 3 punts") {
		t.Fatalf("unexpected settlement reply: %q", got)
	}

	bot.HandleMessage(ctx, commandMessage(testGroupID, adminUserID, "admin", "/tancar 3-1"))
	if got := sender.lastText(t); !strings.Contains(got, "No hi ha cap porra activa") {
		t.Fatalf("expected no active pool after settlement, got %q", got)
	}

	bot.HandleMessage(ctx, commandMessage(testGroupID, plainUserID, "anna", "/classificacio"))
	if got := sender.lastText(t); !strings.Contains(got, "anna: 3 punts") {
		t.Fatalf("expected updated leaderboard, got %q", got)
	}
}

func TestBot_AnularDiscardsPool(t *testing.T) {
	bot, sender := newTestBot(t)
	ctx := context.Background()

	bot.HandleMessage(ctx, commandMessage(testGroupID, adminUserID, "admin",
		"/nova Madrid;fora;"+futureKickoff()))
	bot.HandleMessage(ctx, commandMessage(testGroupID, adminUserID, "admin", "/anular"))
	if got := sender.lastText(t); !strings.Contains(got, "Porra anul·lada") {
		t.Fatalf("unexpected reply: %q", got)
	}

	bot.HandleMessage(ctx, commandMessage(testGroupID, plainUserID, "anna", "/consultar"))
	if got := sender.lastText(t); !strings.Contains(got, "No hi ha cap porra activa") {
		t.Fatalf("expected no active pool after cancel, got %q", got)
	}
}

func TestBot_ClassificacioEmpty(t *testing.T) {
	bot, sender := newTestBot(t)

	bot.HandleMessage(context.Background(), commandMessage(testGroupID, plainUserID, "anna", "/classificacio"))
	if got := sender.lastText(t); !strings.Contains(got, "Encara no hi ha cap participant") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestBot_AjudaListsCommands(t *testing.T) {
	bot, sender := newTestBot(t)

	bot.HandleMessage(context.Background(), commandMessage(testGroupID, plainUserID, "anna", "/ajuda"))
	got := sender.lastText(t)
	for _, cmd := range []string{"/nova", "/apostar", "/consultar", "/tancar", "/anular", "/classificacio"} {
		if !strings.Contains(got, cmd) {
			t.Fatalf("help text missing %s: %q", cmd, got)
		}
	}
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		in   string
		home int
		away int
		ok   bool
	}{
		{"2-1", 2, 1, true},
		{" 0 - 0 ", 0, 0, true},
		{"10-2", 10, 2, true},
		{"2:1", 0, 0, false},
		{"-1-2", 0, 0, false},
		{"a-b", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tc := range cases {
		home, away, ok := parseScore(tc.in)
		if ok != tc.ok || home != tc.home || away != tc.away {
			t.Fatalf("parseScore(%q) = (%d, %d, %v), want (%d, %d, %v)", tc.in, home, away, ok, tc.home, tc.away, tc.ok)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName(&tgbotapi.User{ID: 7, UserName: "anna"}); got != "anna" {
		t.Fatalf("expected username, got %q", got)
	}
	if got := displayName(&tgbotapi.User{ID: 7, FirstName: "Anna", LastName: "Puig"}); got != "Anna Puig" {
		t.Fatalf("expected full name, got %q", got)
	}
	if got := displayName(&tgbotapi.User{ID: 7}); got != "tg:7" {
		t.Fatalf("expected identity fallback, got %q", got)
	}
}
