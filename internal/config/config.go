package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Sensitive values can be
// overridden through environment variables after the file is loaded.
type Config struct {
	Server struct {
		Addr        string `yaml:"addr"`
		Symbol      string `yaml:"symbol"`
		RateLimitMS int    `yaml:"rate_limit_ms"`
	} `yaml:"server"`

	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTLSec   int    `yaml:"ttl_sec"`
	} `yaml:"redis"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.Symbol = "QPX"
	cfg.Server.RateLimitMS = 100
	cfg.Postgres.URL = ""
	cfg.Redis.Addr = ""
	cfg.Redis.TTLSec = 300
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("QUOTEPIT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("QUOTEPIT_SYMBOL"); v != "" {
		cfg.Server.Symbol = v
	}
	if v := os.Getenv("QUOTEPIT_PG_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("QUOTEPIT_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("QUOTEPIT_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("QUOTEPIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLSec) * time.Second
}

func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.Server.RateLimitMS) * time.Millisecond
}
