package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"

	"gastos/internal/database"
)

// Config holds application configuration
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:""`

	// Server
	Port string `envconfig:"PORT" default:"8080"`

	// Scheduling. Timezone decides what "today" means for due dates.
	Timezone        string `envconfig:"TIMEZONE" default:"Local"`
	ProcessSchedule string `envconfig:"PROCESS_SCHEDULE" default:"5 0 * * *"`

	Database database.Config

	// Event forwarding is disabled when URL is empty.
	AMQP struct {
		URL      string `envconfig:"AMQP_URL" default:""`
		Exchange string `envconfig:"AMQP_EXCHANGE" default:"gastos.events"`
	}
}

var appConfig *Config

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appConfig = &cfg
	return &cfg, nil
}

// Get returns the last loaded configuration, loading it on first use.
func Get() (*Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	return Load()
}

// Validate checks values envconfig cannot check on its own.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.ProcessSchedule); err != nil {
		return fmt.Errorf("invalid PROCESS_SCHEDULE %q: %w", c.ProcessSchedule, err)
	}
	return c.Database.Validate()
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
