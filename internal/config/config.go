// Package config loads the POS backend configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	HTTP     HTTPConfig     `toml:"http"`
	Database DatabaseConfig `toml:"database"`
	Notify   NotifyConfig   `toml:"notify"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

type HTTPConfig struct {
	Port string `toml:"port"`
}

type DatabaseConfig struct {
	DSN string `toml:"dsn"`
	// TxTimeout bounds every unit of work, e.g. "5s".
	TxTimeout string `toml:"tx_timeout"`
}

type NotifyConfig struct {
	URL       string `toml:"url"`
	Timeout   string `toml:"timeout"`
	QueueSize int    `toml:"queue_size"`
	Retries   int    `toml:"retries"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: "8081"},
		Database: DatabaseConfig{DSN: "file:pos.db", TxTimeout: "5s"},
		Notify:   NotifyConfig{Timeout: "5s", QueueSize: 100, Retries: 2},
		Metrics:  MetricsConfig{Enabled: true},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (if any),
// then a .env file, then the process environment.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_PORT"); v != "" {
		cfg.HTTP.Port = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TX_TIMEOUT"); v != "" {
		cfg.Database.TxTimeout = v
	}
	if v := os.Getenv("NOTIFY_URL"); v != "" {
		cfg.Notify.URL = v
	}
	if v := os.Getenv("NOTIFY_TIMEOUT"); v != "" {
		cfg.Notify.Timeout = v
	}
	if v, err := strconv.Atoi(os.Getenv("NOTIFY_QUEUE")); err == nil {
		cfg.Notify.QueueSize = v
	}
	if v, err := strconv.ParseBool(os.Getenv("METRICS_ENABLED")); err == nil {
		cfg.Metrics.Enabled = v
	}
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.HTTP.Port); err != nil {
		return fmt.Errorf("invalid http port %q", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if _, err := time.ParseDuration(c.Database.TxTimeout); err != nil {
		return fmt.Errorf("invalid tx_timeout %q: %w", c.Database.TxTimeout, err)
	}
	if _, err := time.ParseDuration(c.Notify.Timeout); err != nil {
		return fmt.Errorf("invalid notify timeout %q: %w", c.Notify.Timeout, err)
	}
	return nil
}

// TxTimeout returns the parsed transaction timeout.
func (c Config) TxTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Database.TxTimeout)
	return d
}

// NotifyTimeout returns the parsed notification timeout.
func (c Config) NotifyTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Notify.Timeout)
	return d
}
