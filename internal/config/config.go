package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every process tunable. The retry knobs deliberately expose
// the fixed-count/fixed-delay policy so operators can change it without a
// rebuild.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"orderflow"`
	Env         string `env:"ENV" envDefault:"dev"`
	Addr        string `env:"ADDR" envDefault:":8080"`

	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay       time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
	AutoReconnect    bool          `env:"AUTO_RECONNECT" envDefault:"true"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
