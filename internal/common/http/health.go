package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports ok when every dependency answers a ping within a
// couple of seconds.
func HealthHandler(log *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := make(map[string]string, len(deps))
		status := http.StatusOK
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				log.WithFields(ctx, logger.Fields{
					"action":     "health_check",
					"dependency": name,
				}).Warnf("dependency unhealthy: %v", err)
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		WriteJSON(w, status, map[string]any{"status": state, "checks": checks})
	}
}
