package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthResponse struct {
	Status string `json:"status"`
}

// Healthz reports liveness. When db is non-nil it must answer a ping within
// healthCheckTimeout, otherwise the response is 503.
func Healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
