package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Listen        string `yaml:"listen"`
		DefaultTicker string `yaml:"default_ticker"`
		DefaultRange  int    `yaml:"default_range"` // strike window in dollars around spot, 0 = unfiltered
	} `yaml:"server"`
	DataSource struct {
		Provider string `yaml:"provider"` // "yahoo" or "mock"
		BaseURL  string `yaml:"base_url"`
		Proxy    string `yaml:"proxy"`
	} `yaml:"data_source"`
	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Cache struct {
		RedisURL string `yaml:"redis_url"`
		TTLHours int    `yaml:"ttl_hours"`
	} `yaml:"cache"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		MaxAge int    `yaml:"max_age_days"`
	} `yaml:"logging"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("DEFAULT_TICKER"); v != "" {
		cfg.Server.DefaultTicker = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("CACHE_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTLHours = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Defaults
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.DefaultTicker == "" {
		cfg.Server.DefaultTicker = "SPY"
	}
	if cfg.Server.DefaultRange == 0 {
		cfg.Server.DefaultRange = 100
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 2
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 1
	}
	if cfg.Cache.TTLHours == 0 {
		cfg.Cache.TTLHours = 24
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Server.DefaultRange < 0 {
		return fmt.Errorf("server.default_range must not be negative")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.provider must be 'yahoo' or 'mock', got '%s'", c.DataSource.Provider)
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be positive")
	}
	if c.Cache.TTLHours < 0 {
		return fmt.Errorf("cache.ttl_hours must not be negative")
	}
	return nil
}
