// Package httptransport assembles the public HTTP surface: health, metrics and the
// versioned verification API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docverify/internal/platform/metrics"
	"docverify/pkg/platform/httputil"
	authmw "docverify/pkg/platform/middleware/auth"
	"docverify/pkg/platform/middleware/request"
)

const healthTimeout = 2 * time.Second

// Registrar mounts a group of API routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck is one dependency probed by GET /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Auth guards /v1 when set. RequiredScope is checked when non-empty.
	Auth          authmw.JWTValidator
	RequiredScope string
	Checks        []HealthCheck
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter wires GET /health, GET /metrics and every registrar under /v1.
func NewRouter(cfg RouterConfig, apis ...Registrar) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(request.RequestID)
	r.Use(cfg.Metrics.Middleware)

	r.Get("/health", healthHandler(cfg.Checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(request.Logger(logger))
		if cfg.Auth != nil {
			v1.Use(authmw.RequireAuth(cfg.Auth, cfg.RequiredScope, logger))
		}
		for _, api := range apis {
			api.Register(v1)
		}
	})
	return r
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		for _, c := range checks {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(checks))
			}
			if err := c.Check(ctx); err != nil {
				resp.Checks[c.Name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
