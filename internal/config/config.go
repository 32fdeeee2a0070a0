// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds the quote engine settings. An empty DatabaseURL selects the
// in-memory store; RedisURL is only used together with a database. An empty
// RatesURL keeps the built-in fallback rates.
type Config struct {
	Port                 string        `env:"PORT" envDefault:"8080"`
	DatabaseURL          string        `env:"DATABASE_URL"`
	DBConnectTimeout     time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"30s"`
	RedisURL             string        `env:"REDIS_URL"`
	CacheTTL             time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	RatesURL             string        `env:"RATES_URL"`
	RatesRefreshInterval time.Duration `env:"RATES_REFRESH_INTERVAL" envDefault:"5m"`
	SeedCatalog          bool          `env:"SEED_CATALOG" envDefault:"true"`
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.RatesRefreshInterval <= 0 {
		return nil, fmt.Errorf("RATES_REFRESH_INTERVAL must be positive, got %s", cfg.RatesRefreshInterval)
	}
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("CACHE_TTL must not be negative, got %s", cfg.CacheTTL)
	}

	return &cfg, nil
}
