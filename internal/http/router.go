// Package httpapi assembles the HTTP surface: middleware, module handlers,
// health and metrics endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custos/internal/platform/middleware"
	"custos/pkg/platform/httputil"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Logger         *slog.Logger
	TokenValidator middleware.TokenValidator

	Authorization Registrar
	Ledger        Registrar
	Policy        Registrar

	HealthChecks map[string]HealthCheck
}

// NewRouter wires all public endpoints. Policy management is guardian-only;
// spending and summaries require any authenticated family member.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealth(deps.HealthChecks))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.TokenValidator, deps.Logger))

		deps.Authorization.Register(r)
		deps.Ledger.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireGuardian)
			deps.Policy.Register(r)
		})
	})

	return r
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
