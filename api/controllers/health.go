package controllers

import (
	"context"
	"net/http"

	"github.com/gamesage/gamesage-backend/api/responses"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
	"github.com/gamesage/gamesage-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthDeps names the collaborators probed by the readiness check.
type HealthDeps struct {
	DB      pinger
	Redis   pinger
	Storage pinger
}

func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every dependency answers a ping.
func HealthReady(deps HealthDeps, logg *logger.Logger) http.HandlerFunc {
	probes := []struct {
		name   string
		target pinger
	}{
		{name: "database", target: deps.DB},
		{name: "redis", target: deps.Redis},
		{name: "storage", target: deps.Storage},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		for _, probe := range probes {
			if probe.target == nil {
				continue
			}
			if err := probe.target.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, probe.name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
