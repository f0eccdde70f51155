package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "PHOTOBOT_"
	envConfig  = "PHOTOBOT_CONFIG"
	envToken   = "TELEGRAM_BOT_TOKEN"
	dotEnvFile = ".env"
)

// FromEnv loads a .env file when present and then calls Load with the file
// named by PHOTOBOT_CONFIG.
func FromEnv() (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, dotEnvFile, err)
	}
	return Load(os.Getenv(envConfig))
}

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. YAML file at path, if not empty
//  3. PHOTOBOT_* environment variables
//
// TELEGRAM_BOT_TOKEN is honoured when no token was configured otherwise.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// PHOTOBOT_TOP_LIMIT -> top_limit
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if cfg.TelegramToken == "" {
		cfg.TelegramToken = os.Getenv(envToken)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	if c.DBDSN == "" {
		return fmt.Errorf("%w: db_dsn must not be empty", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.TopLimit < 1 {
		return fmt.Errorf("%w: top_limit must be at least 1, got %d", ErrInvalidConfig, c.TopLimit)
	}
	if c.NameLookupTimeout <= 0 || c.PollTimeout < 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	for key, def := range DefaultMessages() {
		if c.Messages[key] == "" {
			c.Messages[key] = def
		}
	}
	return nil
}

// Message returns the reply text for key.
func (c *Config) Message(key string) string {
	if m, ok := c.Messages[key]; ok && m != "" {
		return m
	}
	return DefaultMessages()[key]
}
