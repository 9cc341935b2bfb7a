package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/penyablaugrana/porra-pool/internal/app"
	"github.com/penyablaugrana/porra-pool/internal/config"
	"github.com/penyablaugrana/porra-pool/internal/interfaces/telegrambot"
	"github.com/penyablaugrana/porra-pool/internal/platform/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.TelegramBotToken == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}
	if cfg.TelegramGroupID == 0 {
		logger.Error("TELEGRAM_GROUP_ID is required")
		os.Exit(1)
	}

	db, err := app.OpenDB(cfg)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	// The bot replies to the group directly, so the push announcer stays off.
	services := app.NewServices(cfg, db, logger, false)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Error("create telegram bot api", "error", err)
		os.Exit(1)
	}

	bot, err := telegrambot.New(api, services.Pools, services.Predictions, services.Settlements, services.Leaderboard, telegrambot.Config{
		GroupID:  cfg.TelegramGroupID,
		AdminIDs: cfg.TelegramAdminIDs,
		Location: cfg.Timezone,
		Workers:  cfg.BotWorkers,
	}, logger)
	if err != nil {
		logger.Error("build telegram bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("telegram bot stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("telegram bot stopped")
}
