// Package config loads process configuration from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP Server
	Port               string        `env:"PORT" yaml:"port"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" yaml:"rate_limit_per_minute"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`

	// Storage
	DataBackend  string `env:"DATA_BACKEND" yaml:"data_backend"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" yaml:"sqlite_db_path"`
	StorageKey   string `env:"STORAGE_KEY" yaml:"storage_key"`

	// UI
	RecentLimit          int           `env:"RECENT_LIMIT" yaml:"recent_limit"`
	ChartCacheTTL        time.Duration `env:"CHART_CACHE_TTL" yaml:"chart_cache_ttl"`
	CacheCleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL" yaml:"cache_cleanup_interval"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" yaml:"log_level"`
	LogFormat string `env:"LOG_FORMAT" yaml:"log_format"`

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string `env:"AMQP_URL" yaml:"amqp_url"`
	AMQPExchange string `env:"AMQP_EXCHANGE" yaml:"amqp_exchange"`
	AMQPQueue    string `env:"AMQP_QUEUE" yaml:"amqp_queue"`

	ConfigFile string `env:"CONFIG_FILE" yaml:"-"`
}

// MaxRecentLimit is the most rows the recent list may show.
const MaxRecentLimit = 5

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:                 "8081",
		RateLimitPerMinute:   60,
		ShutdownTimeout:      10 * time.Second,
		DataBackend:          "sqlite",
		SQLiteDBPath:         "./data/expenses.db",
		StorageKey:           "expenses",
		RecentLimit:          5,
		ChartCacheTTL:        10 * time.Minute,
		CacheCleanupInterval: 5 * time.Minute,
		LogLevel:             "info",
		LogFormat:            "text",
		AMQPExchange:         "expenses",
		AMQPQueue:            "expense_recorded",
	}
}

// Load applies the YAML file named by CONFIG_FILE (if any) over the defaults,
// then environment variables over that.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// LoadFile overlays the YAML document at path. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parsing yaml %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

// AMQPEnabled reports whether expense events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if info, err := os.Stat(dir); err == nil && !info.IsDir() {
				errors = append(errors, fmt.Sprintf("SQLite database directory '%s' is not a directory", dir))
			}
		}
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

	if c.RecentLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid recent limit %d: must be at least 1", c.RecentLimit))
	} else if c.RecentLimit > MaxRecentLimit {
		errors = append(errors, fmt.Sprintf("invalid recent limit %d: must be at most %d", c.RecentLimit, MaxRecentLimit))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}
	if c.CacheCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache cleanup interval %v: must be at least 1 second", c.CacheCleanupInterval))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
