package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Feed struct {
		URL       string        `yaml:"url"`
		Timeout   time.Duration `yaml:"timeout"`
		RateLimit *float64      `yaml:"rate_limit"` // /api/current requests per second, 0 disables
		Burst     int           `yaml:"burst"`
	} `yaml:"feed"`
	Collector struct {
		Interval   time.Duration `yaml:"interval"`
		RunOnStart *bool         `yaml:"run_on_start"`
	} `yaml:"collector"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads the optional YAML file at path, applies environment overrides,
// then fills defaults. A missing file is not an error.
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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.Feed.URL = getEnv("FEED_URL", c.Feed.URL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	if v := os.Getenv("FEED_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FEED_TIMEOUT: %w", err)
		}
		c.Feed.Timeout = d
	}
	if v := os.Getenv("FEED_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FEED_RATE_LIMIT: %w", err)
		}
		c.Feed.RateLimit = &f
	}
	if v := os.Getenv("FEED_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FEED_BURST: %w", err)
		}
		c.Feed.Burst = n
	}
	if v := os.Getenv("COLLECT_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("COLLECT_INTERVAL: %w", err)
		}
		c.Collector.Interval = d
	}
	if v := os.Getenv("COLLECT_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COLLECT_ON_START: %w", err)
		}
		c.Collector.RunOnStart = &b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Database.Path == "" {
		c.Database.Path = "bazaar_data.db"
	}
	if c.Feed.URL == "" {
		c.Feed.URL = "https://api.hypixel.net/skyblock/bazaar"
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 30 * time.Second
	}
	if c.Feed.RateLimit == nil {
		perSecond := 1.0
		c.Feed.RateLimit = &perSecond
	}
	if c.Feed.Burst == 0 {
		c.Feed.Burst = 3
	}
	if c.Collector.Interval == 0 {
		c.Collector.Interval = 5 * time.Minute
	}
	if c.Collector.RunOnStart == nil {
		on := true
		c.Collector.RunOnStart = &on
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed.timeout must be positive")
	}
	if c.Feed.RateLimit != nil && *c.Feed.RateLimit < 0 {
		return fmt.Errorf("feed.rate_limit must not be negative")
	}
	if c.Feed.Burst < 0 {
		return fmt.Errorf("feed.burst must not be negative")
	}
	// The scheduler's resolution is one second.
	if c.Collector.Interval < time.Second {
		return fmt.Errorf("collector.interval must be at least 1s")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// parseInterval accepts a Go duration or a bare integer in milliseconds.
func parseInterval(v string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
