// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// NotificationConfig controls desktop notifications.
type NotificationConfig struct {
	Enabled bool `yaml:"enabled"`
	// LowCreditThreshold is the remaining-percentage below which a
	// low-credit notification fires. Percent, 0-100.
	LowCreditThreshold float64 `yaml:"low_credit_threshold"`
}

// Config holds the application configuration.
type Config struct {
	HTTPAddr         string             `yaml:"http_addr"`
	DatabasePath     string             `yaml:"database_path"`
	RequestTimeout   time.Duration      `yaml:"request_timeout"`
	RefreshInterval  time.Duration      `yaml:"refresh_interval"`
	HistoryRetention time.Duration      `yaml:"history_retention"`
	LogLevel         string             `yaml:"log_level"`
	Notifications    NotificationConfig `yaml:"notifications"`

	// path is the config file this Config was loaded from, if any.
	path string `yaml:"-"`
}

// Default values
const (
	defaultHTTPAddr         = ":5050"
	defaultRequestTimeout   = 30 * time.Second
	defaultRefreshInterval  = 30 * time.Second
	defaultHistoryRetention = 30 * 24 * time.Hour
	defaultLowCreditPct     = 5.0
)

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		HTTPAddr:         defaultHTTPAddr,
		DatabasePath:     defaultDatabasePath(),
		RequestTimeout:   defaultRequestTimeout,
		RefreshInterval:  defaultRefreshInterval,
		HistoryRetention: defaultHistoryRetention,
		LogLevel:         "info",
		Notifications: NotificationConfig{
			Enabled:            true,
			LowCreditThreshold: defaultLowCreditPct,
		},
	}
}

// Load reads configuration from an optional YAML file, then overlays .env
// files and environment variables. An empty path searches the default
// locations; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			cfg.path = path
		}
	}

	// .env overlays the file, real environment overlays both
	for _, envPath := range envPaths() {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			break
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Path returns the config file this Config was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval)
	}
	if c.Notifications.LowCreditThreshold < 0 || c.Notifications.LowCreditThreshold > 100 {
		return fmt.Errorf("notifications.low_credit_threshold must be within 0-100, got %v",
			c.Notifications.LowCreditThreshold)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnvString("AQM_HTTP_ADDR", c.HTTPAddr)
	c.DatabasePath = getEnvString("AQM_DATABASE_PATH", c.DatabasePath)
	c.RequestTimeout = getEnvDuration("AQM_REQUEST_TIMEOUT", c.RequestTimeout)
	c.RefreshInterval = getEnvDuration("AQM_REFRESH_INTERVAL", c.RefreshInterval)
	c.HistoryRetention = getEnvDuration("AQM_HISTORY_RETENTION", c.HistoryRetention)
	c.LogLevel = getEnvString("AQM_LOG_LEVEL", c.LogLevel)
	if v := os.Getenv("AQM_NOTIFICATIONS"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Notifications.Enabled = enabled
		}
	}
}

// findConfigFile returns the first existing config file from the default
// search locations, or "".
func findConfigFile() string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, "aqm.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "antigravity-quota-monitor", "config.yaml"),
			filepath.Join(home, ".antigravity", "quota-monitor.yaml"),
		)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envPaths returns a list of paths to check for .env files.
func envPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "antigravity-quota-monitor", ".env"),
			filepath.Join(home, ".antigravity", ".env"),
		)
	}
	return paths
}

// defaultDatabasePath returns the default path for the SQLite database.
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "quota-history.db"
	}
	return filepath.Join(home, ".config", "antigravity-quota-monitor", "quota-history.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the
// default. Accepts values like "30s", "1m", "500ms", or a bare second count.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
