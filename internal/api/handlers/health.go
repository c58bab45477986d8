package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Pinger checks a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports whether the database answers
// GET /health
func Health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			if logger != nil {
				logger.Warn("health check failed", zap.Error(err))
			}
			WriteError(w, logger, http.StatusServiceUnavailable, "Unavailable", "database unreachable")
			return
		}
		WriteJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
