package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/orderdesk/api/responses"
	"github.com/angelmondragon/orderdesk/pkg/config"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	pkgredis "github.com/angelmondragon/orderdesk/pkg/redis"
)

const envHeader = "X-OrderDesk-Env"

// Reacher reports whether the record store answers.
type Reacher interface {
	Reachable(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(r.Context(), w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the draft store and the record store. A nil redis pinger means
// drafts are kept in memory and is reported as skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisPinger pkgredis.Pinger, store Reacher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx := r.Context()
		checks := map[string]string{"redis": "skipped", "record_store": "ok"}

		if redisPinger != nil {
			if err := redisPinger.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable").
					WithDetails(map[string]any{"check": "redis"}))
				return
			}
			checks["redis"] = "ok"
		}
		if store != nil {
			if err := store.Reachable(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record store unreachable").
					WithDetails(map[string]any{"check": "record_store"}))
				return
			}
		}

		responses.WriteSuccess(ctx, w, map[string]any{"status": "ready", "checks": checks})
	}
}
