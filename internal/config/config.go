package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration, loaded from a YAML file with secrets
// overridable from the environment so they stay out of checked-in files.
type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	// RelaySecret seeds the per-stage token keys. Required; there is no
	// built-in default on purpose.
	RelaySecret string `yaml:"relay_secret"`

	SQLitePath string `yaml:"sqlite_path"`

	Flights struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"flights"`

	Places struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"places"`

	Payment struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"payment"`

	Mail struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"mail"`
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config YAML: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv builds a config without a file, for container deployments that
// configure everything through the environment.
func LoadFromEnv() (*Config, error) {
	cfg := defaults()
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{
		Listen:     ":8080",
		LogLevel:   "info",
		SQLitePath: "farehop.db",
	}
	cfg.Redis.Addr = "localhost:6379"
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FAREHOP_RELAY_SECRET"); v != "" {
		cfg.RelaySecret = v
	}
	if v := os.Getenv("FAREHOP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("FAREHOP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("FAREHOP_FLIGHTS_API_KEY"); v != "" {
		cfg.Flights.APIKey = v
	}
	if v := os.Getenv("FAREHOP_PLACES_API_KEY"); v != "" {
		cfg.Places.APIKey = v
	}
	if v := os.Getenv("FAREHOP_PAYMENT_API_KEY"); v != "" {
		cfg.Payment.APIKey = v
	}
	if v := os.Getenv("FAREHOP_MAIL_PASSWORD"); v != "" {
		cfg.Mail.Password = v
	}
}

// Validate rejects configurations the server cannot safely run with.
func (c *Config) Validate() error {
	if len(c.RelaySecret) < 16 {
		return fmt.Errorf("relay_secret must be at least 16 bytes (set FAREHOP_RELAY_SECRET)")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	return nil
}
