// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/ntpapi/ntpapi/internal/ntpclient"
)

// MaxNTPRetries caps NTP_RETRIES.
const MaxNTPRetries = 5

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   int    `env:"PORT" envDefault:"3000"`

	// Shared bearer token required on /api routes
	APIToken string `env:"API_TOKEN,required"`

	// NTP upstream
	NTPServer         string        `env:"NTP_SERVER,required"`
	NTPFallbackServer string        `env:"NTP_FALLBACK_SERVER"`
	NTPPort           int           `env:"NTP_PORT" envDefault:"123"`
	NTPTimeout        time.Duration `env:"NTP_TIMEOUT" envDefault:"2s"`
	NTPRetries        int           `env:"NTP_RETRIES" envDefault:"1"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins, "*" for any.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Rate limiting, enabled when REDIS_URL is set
	RedisURL       string `env:"REDIS_URL"`
	RateLimitRPS   int    `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST" envDefault:"20"`
	TrustProxy     bool   `env:"TRUST_PROXY" envDefault:"false"`

	// Observability
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	ReadyzProbeNTP bool `env:"READYZ_PROBE_NTP" envDefault:"false"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RateLimitEnabled reports whether a Redis store is configured.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisURL != ""
}

// NTPServers returns the primary server followed by the fallback, if any.
func (c *Config) NTPServers() []string {
	servers := []string{strings.TrimSpace(c.NTPServer)}
	if fb := strings.TrimSpace(c.NTPFallbackServer); fb != "" && fb != servers[0] {
		servers = append(servers, fb)
	}
	return servers
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks value ranges that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.APIToken) == "" {
		errs = append(errs, errors.New("API_TOKEN must not be blank"))
	}
	if strings.TrimSpace(c.NTPServer) == "" {
		errs = append(errs, errors.New("NTP_SERVER must not be blank"))
	}
	for _, s := range c.NTPServers() {
		if s == "" {
			continue
		}
		if err := ntpclient.ValidateServer(s); err != nil {
			errs = append(errs, fmt.Errorf("NTP_SERVER/NTP_FALLBACK_SERVER: %w; set NTP_PORT instead", err))
		}
	}
	if c.NTPPort < 1 || c.NTPPort > 65535 {
		errs = append(errs, fmt.Errorf("NTP_PORT must be between 1 and 65535, got %d", c.NTPPort))
	}
	if c.NTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("NTP_TIMEOUT must be positive, got %s", c.NTPTimeout))
	}
	if c.NTPRetries < 0 || c.NTPRetries > MaxNTPRetries {
		errs = append(errs, fmt.Errorf("NTP_RETRIES must be between 0 and %d, got %d", MaxNTPRetries, c.NTPRetries))
	}
	// The whole retry budget must fit inside the write deadline, or the
	// 500 for a failed upstream never reaches the client.
	if c.WriteTimeout > 0 && c.NTPTimeout > 0 && c.NTPRetries >= 0 {
		if budget := c.NTPTimeout * time.Duration(c.NTPRetries+1); budget >= c.WriteTimeout {
			errs = append(errs, fmt.Errorf("NTP_TIMEOUT x (NTP_RETRIES+1) = %s must be less than WRITE_TIMEOUT %s", budget, c.WriteTimeout))
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.RateLimitEnabled() {
		if c.RateLimitRPS <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %d", c.RateLimitRPS))
		}
		if c.RateLimitBurst <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimitBurst))
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing or out of range.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom is Load over an explicit environment instead of the process one.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
