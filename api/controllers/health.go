package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodstore/api/responses"
	"github.com/angelmondragon/foodstore/pkg/config"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
	pkgredis "github.com/angelmondragon/foodstore/pkg/redis"
)

const envHeader = "X-Foodstore-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the session store answers.
func HealthReady(cfg *config.Config, redis pkgredis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		if redis == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "redis not configured"))
			return
		}
		if err := redis.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
