package telegrambot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/panjf2000/ants/v2"
	"github.com/penyablaugrana/porra-pool/internal/platform/logging"
	"github.com/penyablaugrana/porra-pool/internal/usecase"
)

const updateTimeoutSeconds = 60

// messageSender is the slice of the bot API used to reply; *tgbotapi.BotAPI
// satisfies it.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Config struct {
	GroupID  int64
	AdminIDs []int64
	Location *time.Location
	Workers  int
}

// Bot serves the group chat commands. Updates from other chats are ignored,
// admin commands from non-admins are rejected.
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      messageSender
	pools       *usecase.PoolService
	predictions *usecase.PredictionService
	settlements *usecase.SettlementService
	leaderboard *usecase.LeaderboardService
	groupID     int64
	admins      map[int64]struct{}
	loc         *time.Location
	workers     *ants.Pool
	logger      *logging.Logger
}

func New(
	api *tgbotapi.BotAPI,
	pools *usecase.PoolService,
	predictions *usecase.PredictionService,
	settlements *usecase.SettlementService,
	leaderboard *usecase.LeaderboardService,
	cfg Config,
	logger *logging.Logger,
) (*Bot, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	pool, err := ants.NewPool(cfg.Workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}

	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}

	return &Bot{
		api:         api,
		sender:      api,
		pools:       pools,
		predictions: predictions,
		settlements: settlements,
		leaderboard: leaderboard,
		groupID:     cfg.GroupID,
		admins:      admins,
		loc:         cfg.Location,
		workers:     pool,
		logger:      logger,
	}, nil
}

// Run blocks consuming long-poll updates until ctx is cancelled. Each update
// is handled on the worker pool so a slow settlement does not stall the feed.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	b.logger.InfoContext(ctx, "telegram bot started", "username", b.api.Self.UserName, "group_id", b.groupID)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.workers.Release()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				b.workers.Release()
				return nil
			}
			if update.Message == nil {
				continue
			}

			msg := update.Message
			if err := b.workers.Submit(func() {
				b.HandleMessage(ctx, msg)
			}); err != nil {
				b.logger.WarnContext(ctx, "submit update to worker pool", "error", err)
			}
		}
	}
}

// HandleMessage dispatches one incoming message. Exported for the update loop
// and direct use in tests.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil {
		return
	}
	if msg.Chat == nil || msg.Chat.ID != b.groupID {
		return
	}
	if !msg.IsCommand() {
		return
	}

	reply := b.dispatch(ctx, msg)
	if reply == "" {
		return
	}
	b.reply(ctx, msg.Chat.ID, reply)
}

func (b *Bot) isAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := b.sender.Send(out); err != nil {
		b.logger.WarnContext(ctx, "send telegram reply", "chat_id", chatID, "error", err)
	}
}
