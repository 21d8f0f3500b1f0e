// Package config loads the server settings from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr     string     `env:"OT_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"OT_LOG_LEVEL" envDefault:"INFO"`

	// SendBuffer is the number of outbound messages queued per connection
	// before the connection is dropped as too slow.
	SendBuffer int `env:"OT_SEND_BUFFER" envDefault:"64"`
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SendBuffer < 1 {
		return Config{}, fmt.Errorf("config: OT_SEND_BUFFER must be positive, got %d", cfg.SendBuffer)
	}
	return cfg, nil
}
