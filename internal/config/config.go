// Package config loads application configuration from the environment.
// Configuration is read once at startup and treated as immutable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable for the marketplace server.
type Config struct {
	// Server
	Port string

	// Database. Empty means the in-memory repository is used instead of
	// Postgres, which is the mode integration tests and local development run in.
	DatabaseURL string

	// Rate limiting (per client)
	RateLimitPerMinute int
	RateLimitBurst     int

	// Query surface
	DashboardTopN int

	// Status reconciliation on read paths can be skipped entirely when an
	// external scheduler owns it.
	ReconcileOnRead bool

	// Rate limiter bookkeeping
	RateLimitCleanupInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for everything optional. It returns an error for values that parse but
// make no sense (zero or negative limits).
func Load() (*Config, error) {
	cfg := &Config{
		Port:                     ":8080",
		RateLimitPerMinute:       120,
		RateLimitBurst:           20,
		DashboardTopN:            5,
		ReconcileOnRead:          true,
		RateLimitCleanupInterval: 5 * time.Minute,
	}

	if p := os.Getenv("PORT"); p != "" {
		cfg.Port = fmt.Sprintf(":%s", p)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if raw := os.Getenv("RATE_LIMIT_PER_MINUTE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q", raw)
		}
		cfg.RateLimitPerMinute = n
	}

	if raw := os.Getenv("RATE_LIMIT_BURST"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST %q", raw)
		}
		cfg.RateLimitBurst = n
	}

	if raw := os.Getenv("DASHBOARD_TOP_N"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid DASHBOARD_TOP_N %q", raw)
		}
		cfg.DashboardTopN = n
	}

	if raw := os.Getenv("RECONCILE_ON_READ"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid RECONCILE_ON_READ %q", raw)
		}
		cfg.ReconcileOnRead = b
	}

	return cfg, nil
}
