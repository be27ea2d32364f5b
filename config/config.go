package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Settings  SettingsConfig  `yaml:"settings"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// SettingsConfig describes the remote settings source that may override the
// built-in legacy checklist configuration.
type SettingsConfig struct {
	BaseURL         string        `yaml:"base_url"`
	TimeoutSeconds  int           `yaml:"timeout_seconds"`
	Timeout         time.Duration `yaml:"-"` // Ignored by YAML parser
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
}

// AnalyticsConfig holds the analytics-related configuration.
type AnalyticsConfig struct {
	// Timezone is the fixed reference time zone used for calendar-date
	// comparisons in reports.
	Timezone string `yaml:"timezone"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Settings.TimeoutSeconds <= 0 {
		cfg.Settings.TimeoutSeconds = 5
	}
	cfg.Settings.Timeout = time.Duration(cfg.Settings.TimeoutSeconds) * time.Second
	if cfg.Settings.CacheTTLSeconds <= 0 {
		cfg.Settings.CacheTTLSeconds = 300
	}

	if cfg.Analytics.Timezone == "" {
		cfg.Analytics.Timezone = "America/Sao_Paulo"
	}

	return &cfg, nil
}
