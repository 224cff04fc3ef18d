package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/OpenAegis/saleor-app-order-hash-generator/api/responses"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/config"
	"github.com/OpenAegis/saleor-app-order-hash-generator/pkg/logger"
)

// Pinger is anything with a connectivity probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports per-dependency connectivity. Optional dependencies that
// were never configured report "disabled" and do not fail readiness; a
// configured dependency that cannot be reached does.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true

		probe := func(name string, p Pinger) {
			if p == nil {
				checks[name] = "disabled"
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "unreachable"
				ready = false
				logg.Error(logg.WithField(ctx, "dependency", name), "readiness probe failed", err)
				return
			}
			checks[name] = "ok"
		}

		probe("database", dbP)
		probe("redis", redisP)

		w.Header().Set("X-App-Env", cfg.App.Env)
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
