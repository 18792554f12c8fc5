package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all hub configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Remote    RemoteConfig    `yaml:"remote"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds the Renderer-facing HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
	// CORSOrigins lists the Renderer origins allowed to call the
	// intent endpoints; "*" admits any origin.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*" yaml:"cors_origins"`
}

// RemoteConfig holds the document service (filtering/answering)
// configuration.
type RemoteConfig struct {
	BaseURL string `envconfig:"REMOTE_URL" default:"http://127.0.0.1:8080" yaml:"base_url"`
	// Timeout bounds every remote call; a timed-out request always
	// resolves through the connectivity-failure path.
	Timeout      time.Duration `envconfig:"REMOTE_TIMEOUT" default:"30s" yaml:"timeout"`
	RetryMax     int           `envconfig:"REMOTE_RETRY_MAX" default:"3" yaml:"retry_max"`
	RetryWaitMin time.Duration `envconfig:"REMOTE_RETRY_WAIT_MIN" default:"1s" yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `envconfig:"REMOTE_RETRY_WAIT_MAX" default:"30s" yaml:"retry_wait_max"`
}

// StorageConfig holds session persistence configuration.
type StorageConfig struct {
	Path string `envconfig:"STORAGE_PATH" default:"hub.db" yaml:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration for the intent
// endpoints.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from environment variables, then applies
// overrides from a YAML file. Environment defaults fill anything the
// file leaves out.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Remote: RemoteConfig{
			BaseURL:      "http://127.0.0.1:8080",
			Timeout:      30 * time.Second,
			RetryMax:     3,
			RetryWaitMin: 1 * time.Second,
			RetryWaitMax: 30 * time.Second,
		},
		Storage: StorageConfig{
			Path: "hub.db",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
