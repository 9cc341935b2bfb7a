package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/penyablaugrana/porra-pool/internal/domain/pool"
	"github.com/penyablaugrana/porra-pool/internal/domain/prediction"
	"github.com/penyablaugrana/porra-pool/internal/platform/logging"
	"github.com/penyablaugrana/porra-pool/internal/usecase"
)

type Handler struct {
	poolService        *usecase.PoolService
	predictionService  *usecase.PredictionService
	settlementService  *usecase.SettlementService
	leaderboardService *usecase.LeaderboardService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	poolService *usecase.PoolService,
	predictionService *usecase.PredictionService,
	settlementService *usecase.SettlementService,
	leaderboardService *usecase.LeaderboardService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		poolService:        poolService,
		predictionService:  predictionService,
		settlementService:  settlementService,
		leaderboardService: leaderboardService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) OpenPool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OpenPool")
	defer span.End()

	var req openPoolRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	opened, err := h.poolService.OpenPool(ctx, req.OpponentName, req.KickoffAt, req.HomeMatch)
	if err != nil {
		h.logger.WarnContext(ctx, "open pool failed", "opponent", req.OpponentName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, poolToDTO(ctx, opened))
}

func (h *Handler) GetActivePool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetActivePool")
	defer span.End()

	active, entries, err := h.poolService.ActivePoolSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, activePoolDTO{
		Pool:        poolToDTO(ctx, active),
		Predictions: entriesToDTOs(ctx, entries),
	})
}

func (h *Handler) CancelPool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelPool")
	defer span.End()

	poolID := strings.TrimSpace(r.PathValue("poolID"))
	if err := h.poolService.CancelPool(ctx, poolID); err != nil {
		h.logger.WarnContext(ctx, "cancel pool failed", "pool_id", poolID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) SettlePool(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SettlePool")
	defer span.End()

	poolID := strings.TrimSpace(r.PathValue("poolID"))
	var req settlePoolRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.settlementService.Settle(ctx, poolID, req.HomeGoals, req.AwayGoals)
	if err != nil {
		h.logger.WarnContext(ctx, "settle pool failed", "pool_id", poolID, "error", err)
		writeError(ctx, w, err)
		return
	}

	rows := make([]settledPredictionDTO, 0, len(report))
	for i, row := range report {
		rows = append(rows, settledPredictionDTO{
			Rank:          i + 1,
			DisplayName:   row.DisplayName,
			HomeGoals:     row.HomeGoals,
			AwayGoals:     row.AwayGoals,
			PointsAwarded: row.PointsAwarded,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, settlementReportDTO{
		PoolID:    poolID,
		HomeGoals: req.HomeGoals,
		AwayGoals: req.AwayGoals,
		Report:    rows,
	})
}

func (h *Handler) RecordPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordPrediction")
	defer span.End()

	var req recordPredictionRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	bet, err := h.predictionService.RecordPrediction(ctx, req.Identity, req.DisplayName, req.HomeGoals, req.AwayGoals)
	if err != nil {
		h.logger.WarnContext(ctx, "record prediction failed", "identity", req.Identity, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, predictionDTO{
		PoolID:    bet.PoolID,
		HomeGoals: bet.HomeGoals,
		AwayGoals: bet.AwayGoals,
	})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	standings, err := h.leaderboardService.Leaderboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]standingDTO, 0, len(standings))
	for i, s := range standings {
		items = append(items, standingDTO{
			Rank:        i + 1,
			DisplayName: s.DisplayName,
			TotalPoints: s.TotalPoints,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type openPoolRequest struct {
	OpponentName string `json:"opponentName" validate:"required,max=64"`
	KickoffAt    string `json:"kickoffAt" validate:"required"`
	HomeMatch    bool   `json:"homeMatch"`
}

type settlePoolRequest struct {
	HomeGoals int `json:"homeGoals" validate:"gte=0"`
	AwayGoals int `json:"awayGoals" validate:"gte=0"`
}

type recordPredictionRequest struct {
	Identity    string `json:"identity" validate:"required,max=64"`
	DisplayName string `json:"displayName" validate:"max=64"`
	HomeGoals   int    `json:"homeGoals" validate:"gte=0"`
	AwayGoals   int    `json:"awayGoals" validate:"gte=0"`
}

type poolDTO struct {
	ID           string     `json:"id"`
	OpponentName string     `json:"opponentName"`
	KickoffAt    string     `json:"kickoffAt"`
	HomeMatch    bool       `json:"homeMatch"`
	Settled      bool       `json:"settled"`
	Result       *resultDTO `json:"result,omitempty"`
}

type resultDTO struct {
	HomeGoals int `json:"homeGoals"`
	AwayGoals int `json:"awayGoals"`
}

type activePoolDTO struct {
	Pool        poolDTO              `json:"pool"`
	Predictions []predictionEntryDTO `json:"predictions"`
}

type predictionEntryDTO struct {
	DisplayName string `json:"displayName"`
	HomeGoals   int    `json:"homeGoals"`
	AwayGoals   int    `json:"awayGoals"`
}

type predictionDTO struct {
	PoolID    string `json:"poolId"`
	HomeGoals int    `json:"homeGoals"`
	AwayGoals int    `json:"awayGoals"`
}

type settlementReportDTO struct {
	PoolID    string                 `json:"poolId"`
	HomeGoals int                    `json:"homeGoals"`
	AwayGoals int                    `json:"awayGoals"`
	Report    []settledPredictionDTO `json:"report"`
}

type settledPredictionDTO struct {
	Rank          int    `json:"rank"`
	DisplayName   string `json:"displayName"`
	HomeGoals     int    `json:"homeGoals"`
	AwayGoals     int    `json:"awayGoals"`
	PointsAwarded int    `json:"pointsAwarded"`
}

type standingDTO struct {
	Rank        int    `json:"rank"`
	DisplayName string `json:"displayName"`
	TotalPoints int    `json:"totalPoints"`
}

func poolToDTO(ctx context.Context, v pool.Pool) poolDTO {
	dto := poolDTO{
		ID:           v.ID,
		OpponentName: v.OpponentName,
		KickoffAt:    v.ScheduledAt.UTC().Format(time.RFC3339),
		HomeMatch:    v.HomeMatch,
		Settled:      v.IsSettled(),
	}
	if v.Result != nil {
		dto.Result = &resultDTO{HomeGoals: v.Result.HomeGoals, AwayGoals: v.Result.AwayGoals}
	}
	return dto
}

func entriesToDTOs(ctx context.Context, entries []prediction.Entry) []predictionEntryDTO {
	items := make([]predictionEntryDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, predictionEntryDTO{
			DisplayName: e.DisplayName,
			HomeGoals:   e.HomeGoals,
			AwayGoals:   e.AwayGoals,
		})
	}
	return items
}
