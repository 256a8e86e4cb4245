// Package main is the entrypoint for the NTP time API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ntpapi/ntpapi/internal/auth"
	"github.com/ntpapi/ntpapi/internal/config"
	"github.com/ntpapi/ntpapi/internal/handler"
	"github.com/ntpapi/ntpapi/internal/metrics"
	"github.com/ntpapi/ntpapi/internal/middleware"
	"github.com/ntpapi/ntpapi/internal/ntpclient"
	"github.com/ntpapi/ntpapi/internal/ratelimit"
	"github.com/ntpapi/ntpapi/internal/server"
	"github.com/ntpapi/ntpapi/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Metrics
	var recorder metrics.Recorder = metrics.NewNoop()
	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheus(reg)
		gatherer = reg
	}

	ntpClient, err := ntpclient.New(ntpclient.Options{
		Servers: cfg.NTPServers(),
		Port:    cfg.NTPPort,
		Timeout: cfg.NTPTimeout,
		Retries: cfg.NTPRetries,
	}, logger, recorder)
	if err != nil {
		logger.Error("failed to configure NTP client", "error", err)
		os.Exit(1)
	}

	verifier, err := auth.NewVerifier(cfg.APIToken)
	if err != nil {
		logger.Error("failed to configure authentication", "error", err)
		os.Exit(1)
	}

	healthHandler := handler.NewHealthHandler(logger)
	if cfg.ReadyzProbeNTP {
		healthHandler.WithCheck("ntp", ntpClient)
	}

	var limiter middleware.Limiter
	var redisLimiter *ratelimit.Limiter
	if cfg.RateLimitEnabled() {
		redisLimiter, err = ratelimit.New(ctx, cfg.RedisURL, cfg.RateLimitRPS, cfg.RateLimitBurst)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		limiter = redisLimiter
		healthHandler.WithCheck("redis", redisLimiter)
		logger.Info("connected to Redis", "rate_limit_rps", cfg.RateLimitRPS, "rate_limit_burst", cfg.RateLimitBurst)
	} else {
		healthHandler.WithCheck("redis", nil)
	}

	r := setupRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		gatherer: gatherer,
		verifier: verifier,
		limiter:  limiter,
		timeSvc:  service.NewTimeService(ntpClient),
		health:   healthHandler,
	})

	srv := server.New(r, server.Options{
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if redisLimiter != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return redisLimiter.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.Port,
		"env", cfg.AppEnv,
		"ntp_servers", strings.Join(ntpClient.Servers(), ","),
		"ntp_port", cfg.NTPPort,
		"ntp_timeout", cfg.NTPTimeout,
		"ntp_retries", cfg.NTPRetries,
		"rate_limit", cfg.RateLimitEnabled(),
		"metrics", cfg.MetricsEnabled,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
