package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all client configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// APIConfig holds REST collaborator settings. Keys compose under the
// HACKMATE_API_ prefix, e.g. HACKMATE_API_BASE_URL.
type APIConfig struct {
	BaseURL string        `envconfig:"BASE_URL" default:"http://localhost:8080" yaml:"base_url"`
	Token   string        `envconfig:"TOKEN" yaml:"token"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s" yaml:"timeout"`
}

// RealtimeConfig holds websocket connection settings, keyed under
// HACKMATE_REALTIME_.
type RealtimeConfig struct {
	Endpoint          string        `envconfig:"ENDPOINT" default:"ws://localhost:8080/ws" yaml:"endpoint"`
	ReconnectDelay    time.Duration `envconfig:"RECONNECT_DELAY" default:"5s" yaml:"reconnect_delay"`
	HeartbeatInterval time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"4s" yaml:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `envconfig:"HEARTBEAT_TIMEOUT" default:"10s" yaml:"heartbeat_timeout"`
	// MaxReconnectAttempts bounds the retry loop; zero means retry forever.
	MaxReconnectAttempts int `envconfig:"MAX_RECONNECT_ATTEMPTS" default:"0" yaml:"max_reconnect_attempts"`
}

// LogConfig holds logging configuration, keyed under HACKMATE_LOGGING_.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"DEVELOPMENT" default:"false" yaml:"development"`
}

// RateLimitConfig holds outbound REST rate limiting configuration, keyed
// under HACKMATE_RATELIMIT_.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RPS" default:"20" yaml:"requests_per_second"`
	Burst             int  `envconfig:"BURST" default:"40" yaml:"burst"`
	Enabled           bool `envconfig:"ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from HACKMATE_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("hackmate", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from environment variables, then overlays the
// keys present in a YAML file. File values win over environment and defaults.
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
		return nil, fmt.Errorf("failed to parse config file: %w", err)
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
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Realtime: RealtimeConfig{
			Endpoint:          "ws://localhost:8080/ws",
			ReconnectDelay:    5 * time.Second,
			HeartbeatInterval: 4 * time.Second,
			HeartbeatTimeout:  10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
