// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTP struct {
		Port string `env:"PORT" env-default:"8080"`
		// APIKey guards the API. Empty leaves the API open, intended for
		// local development only.
		APIKey string `env:"API_KEY"`
	}

	Storage struct {
		// Backend selects the persistence backend: memory or postgres.
		Backend     string `env:"STORAGE_BACKEND" env-default:"memory"`
		DatabaseURL string `env:"DATABASE_URL"`
	}

	AssetHost struct {
		// BaseURL of the external asset host API. Empty selects the
		// in-memory fake (local development without host credentials).
		BaseURL string `env:"ASSET_HOST_URL"`
		APIKey  string `env:"ASSET_HOST_API_KEY"`
	}

	Log struct {
		Level  string `env:"LOG_LEVEL" env-default:"info"`
		Format string `env:"LOG_FORMAT" env-default:"json"`
	}
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required with STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", c.Storage.Backend)
	}
	if c.AssetHost.BaseURL != "" && c.AssetHost.APIKey == "" {
		return fmt.Errorf("ASSET_HOST_API_KEY is required when ASSET_HOST_URL is set")
	}
	return nil
}
