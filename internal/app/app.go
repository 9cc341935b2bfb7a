package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/penyablaugrana/porra-pool/external/telegram"
	"github.com/penyablaugrana/porra-pool/internal/config"
	"github.com/penyablaugrana/porra-pool/internal/infrastructure/repository/postgres"
	"github.com/penyablaugrana/porra-pool/internal/interfaces/httpapi"
	"github.com/penyablaugrana/porra-pool/internal/platform/cache"
	idgen "github.com/penyablaugrana/porra-pool/internal/platform/id"
	"github.com/penyablaugrana/porra-pool/internal/platform/logging"
	"github.com/penyablaugrana/porra-pool/internal/platform/resilience"
	"github.com/penyablaugrana/porra-pool/internal/usecase"
)

// Services bundles the wired use cases shared by the API and bot binaries.
type Services struct {
	Pools       *usecase.PoolService
	Predictions *usecase.PredictionService
	Settlements *usecase.SettlementService
	Leaderboard *usecase.LeaderboardService
}

// OpenDB opens a traced connection pool against the configured postgres.
func OpenDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// NewServices wires repositories, cache and the optional announcer into the
// use case layer. withAnnouncer lets the bot binary skip the push client when
// it replies to the group itself.
func NewServices(cfg config.Config, db *sqlx.DB, logger *logging.Logger, withAnnouncer bool) Services {
	if logger == nil {
		logger = logging.Default()
	}

	poolRepo := postgres.NewPoolRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	predictionRepo := postgres.NewPredictionRepository(db)
	generator := idgen.NewRandomGenerator()

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	var announcer usecase.Announcer
	if withAnnouncer && cfg.AnnounceEnabled {
		announcer = telegram.NewAnnouncer(telegram.AnnouncerConfig{
			Token:   cfg.TelegramBotToken,
			ChatID:  cfg.TelegramGroupID,
			Timeout: cfg.AnnounceTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.AnnounceCircuitEnabled,
				FailureThreshold: cfg.AnnounceCircuitFailures,
				OpenTimeout:      cfg.AnnounceCircuitOpenFor,
				HalfOpenMaxReq:   cfg.AnnounceCircuitHalfOpen,
			},
		}, logger)
	}

	leaderboard := usecase.NewLeaderboardService(participantRepo, store)

	return Services{
		Pools:       usecase.NewPoolService(poolRepo, predictionRepo, generator, cfg.Timezone),
		Predictions: usecase.NewPredictionService(poolRepo, participantRepo, predictionRepo, generator),
		Settlements: usecase.NewSettlementService(poolRepo, poolRepo, leaderboard, announcer, logger),
		Leaderboard: leaderboard,
	}
}

func NewHTTPServer(cfg config.Config, services Services, logger *logging.Logger) (*http.Server, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(services.Pools, services.Predictions, services.Settlements, services.Leaderboard, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
