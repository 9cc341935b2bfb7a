package httpapi

import (
	"net/http"

	"github.com/penyablaugrana/porra-pool/internal/platform/logging"
)

func NewRouter(handler *Handler, logger *logging.Logger, corsAllowedOrigins []string) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("POST /v1/pools", handler.OpenPool)
	mux.HandleFunc("GET /v1/pools/active", handler.GetActivePool)
	mux.HandleFunc("DELETE /v1/pools/{poolID}", handler.CancelPool)
	mux.HandleFunc("POST /v1/pools/{poolID}/settle", handler.SettlePool)
	mux.HandleFunc("PUT /v1/pools/active/predictions", handler.RecordPrediction)
	mux.HandleFunc("GET /v1/leaderboard", handler.GetLeaderboard)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
