package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	HTTPPort    int           `envconfig:"HTTP_PORT" default:"8080"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"60s"`

	Carriers      int `envconfig:"CARRIERS" default:"4"`
	PoolWorkers   int `envconfig:"POOL_WORKERS" default:"0"`
	QueueCapacity int `envconfig:"QUEUE_CAPACITY" default:"16"`

	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	FetchItemTimeout time.Duration `envconfig:"FETCH_ITEM_TIMEOUT" default:"5s"`
	ComputeTimeout   time.Duration `envconfig:"COMPUTE_TIMEOUT" default:"30s"`

	MaxURLsPerPrompt int   `envconfig:"MAX_URLS_PER_PROMPT" default:"5"`
	MaxFetchBody     int64 `envconfig:"MAX_FETCH_BODY" default:"4194304"`
	MaxTokens        int   `envconfig:"MAX_TOKENS" default:"64"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.Carriers <= 0 {
		return fmt.Errorf("carrier count must be positive: %d", c.Carriers)
	}

	if c.PoolWorkers < 0 {
		return fmt.Errorf("pool worker count must not be negative: %d", c.PoolWorkers)
	}

	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity must not be negative: %d", c.QueueCapacity)
	}

	if c.FetchTimeout < 0 || c.FetchItemTimeout < 0 || c.ComputeTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	if c.MaxURLsPerPrompt <= 0 {
		return fmt.Errorf("max URLs per prompt must be positive: %d", c.MaxURLsPerPrompt)
	}

	if c.MaxFetchBody <= 0 {
		return fmt.Errorf("max fetch body must be positive: %d", c.MaxFetchBody)
	}

	return nil
}
