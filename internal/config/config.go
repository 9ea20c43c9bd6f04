package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds host-process settings for the demo embed host. Widget-level
// options (color, greeting, lead capture) arrive through the init command,
// not the environment.
type Config struct {
	// Core
	BotID   string `env:"WIDGET_BOT_ID,required"`
	APIKey  string `env:"WIDGET_API_KEY"`
	BaseURL string `env:"WIDGET_API_URL,required"`

	// Storage driver: memory, redis or postgres
	StorageDriver string `env:"WIDGET_STORAGE" envDefault:"memory"`
	RedisAddr     string `env:"WIDGET_REDIS_ADDR" envDefault:"localhost:6379"`
	DatabaseURL   string `env:"WIDGET_DATABASE_URL"`

	// Presentation hints passed to init
	Greeting string `env:"WIDGET_GREETING"`
	BotName  string `env:"WIDGET_BOT_NAME"`
	Color    string `env:"WIDGET_COLOR"`

	// Simulated host environment
	PageURL   string `env:"WIDGET_PAGE_URL" envDefault:"https://example.com"`
	UserAgent string `env:"WIDGET_USER_AGENT" envDefault:"widget-demo/1.0"`

	Debug bool `env:"WIDGET_DEBUG" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
