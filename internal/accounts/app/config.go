package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every runtime knob for the accounts service. The signing
// secret is injected here and threaded down explicitly; nothing below the
// app layer reads the environment.
type Config struct {
	Secret   string        `env:"ACCOUNTS_SECRET"`                      // Required: HS256 token signing secret
	Issuer   string        `env:"ACCOUNTS_ISSUER" envDefault:"accounts"` // Issuer claim for tokens
	TokenTTL time.Duration `env:"ACCOUNTS_TOKEN_TTL" envDefault:"24h"`  // Lifetime of issued tokens

	DatabaseFile string `env:"ACCOUNTS_DATABASE_FILE" envDefault:"accounts.db"` // Path to SQLite database file
	PepperFile   string `env:"ACCOUNTS_PEPPER_FILE" envDefault:"pepper"`        // Path to password pepper file

	Env       string `env:"ENV" envDefault:"dev"`         // Environment (dev, staging, prod)
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`  // Log level (debug, info, warn, error)
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // Log format (json, text)

	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Secret == "" {
		return Config{}, errors.New("ACCOUNTS_SECRET must be set")
	}

	return cfg, nil
}
