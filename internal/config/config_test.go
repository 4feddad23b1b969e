package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		HTTPPort:         8080,
		HTTPTimeout:      time.Minute,
		Carriers:         4,
		PoolWorkers:      2,
		QueueCapacity:    16,
		FetchTimeout:     10 * time.Second,
		FetchItemTimeout: 5 * time.Second,
		ComputeTimeout:   30 * time.Second,
		MaxURLsPerPrompt: 5,
		MaxFetchBody:     1 << 20,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero pool workers means NumCPU", func(c *Config) { c.PoolWorkers = 0 }, false},
		{"zero queue capacity is allowed", func(c *Config) { c.QueueCapacity = 0 }, false},
		{"invalid port", func(c *Config) { c.HTTPPort = 0 }, true},
		{"port too large", func(c *Config) { c.HTTPPort = 70000 }, true},
		{"zero carriers", func(c *Config) { c.Carriers = 0 }, true},
		{"negative pool workers", func(c *Config) { c.PoolWorkers = -1 }, true},
		{"negative queue capacity", func(c *Config) { c.QueueCapacity = -1 }, true},
		{"negative fetch timeout", func(c *Config) { c.FetchTimeout = -time.Second }, true},
		{"negative compute timeout", func(c *Config) { c.ComputeTimeout = -time.Second }, true},
		{"zero max urls", func(c *Config) { c.MaxURLsPerPrompt = 0 }, true},
		{"zero max fetch body", func(c *Config) { c.MaxFetchBody = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.Carriers != 4 {
		t.Errorf("expected default carriers 4, got %d", cfg.Carriers)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("expected default fetch timeout 10s, got %v", cfg.FetchTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GS_HTTP_PORT", "9090")
	t.Setenv("GS_COMPUTE_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.ComputeTimeout != 45*time.Second {
		t.Errorf("expected compute timeout 45s, got %v", cfg.ComputeTimeout)
	}
}

func TestLoad_InvalidRejected(t *testing.T) {
	t.Setenv("GS_CARRIERS", "-2")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}
