// Package config loads process settings for the arbor binary.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds settings read from ARBOR_* environment variables. Command-line
// flags override them.
type Config struct {
	Addr         string        `env:"ARBOR_ADDR" envDefault:":8080"`
	LogLevel     string        `env:"ARBOR_LOG_LEVEL" envDefault:"info"`
	Tree         string        `env:"ARBOR_TREE"`
	RedisAddr    string        `env:"ARBOR_REDIS_ADDR"`
	RedisChannel string        `env:"ARBOR_REDIS_CHANNEL" envDefault:"arbor:disconnect"`
	RateLimit    float64       `env:"ARBOR_RATE_LIMIT" envDefault:"0"`
	RateBurst    int           `env:"ARBOR_RATE_BURST" envDefault:"5"`
	ShutdownWait time.Duration `env:"ARBOR_SHUTDOWN_WAIT" envDefault:"5s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
