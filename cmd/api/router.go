package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ntpapi/ntpapi/internal/auth"
	"github.com/ntpapi/ntpapi/internal/config"
	"github.com/ntpapi/ntpapi/internal/handler"
	"github.com/ntpapi/ntpapi/internal/metrics"
	"github.com/ntpapi/ntpapi/internal/middleware"
)

const (
	timeRoute    = "/api/ntp-time"
	metricsRoute = "/metrics"
)

// routerDeps are the collaborators the HTTP surface is built from.
type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	// gatherer is nil when metrics are disabled.
	gatherer prometheus.Gatherer
	verifier *auth.Verifier
	// limiter is nil when rate limiting is disabled.
	limiter middleware.Limiter
	timeSvc handler.TimeGetter
	health  *handler.HealthHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	endpoints := []string{timeRoute, "/healthz", "/readyz"}
	if d.gatherer != nil {
		endpoints = append(endpoints, metricsRoute)
	}
	h := handler.New(endpoints...)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()

	// Global middleware
	if d.cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger, d.recorder))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)

	// Root info endpoint
	r.Get("/", h.Info)

	if d.gatherer != nil {
		r.Get(metricsRoute, handler.NewMetricsHandler(d.gatherer).Metrics)
	}

	timeHandler := handler.NewTimeHandler(d.timeSvc, d.logger)

	// Rate limiting applies to unauthenticated requests too.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Logger:  d.logger,
			Limiter: d.limiter,
			Metrics: d.recorder,
		}))
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:   d.logger,
			Verifier: d.verifier,
		}))

		r.Get(timeRoute, timeHandler.Get)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
