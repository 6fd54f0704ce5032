// Package config loads dashboard configuration from an optional YAML
// file overlaid with environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines the dashboard runtime configuration.
type Config struct {
	HTTPAddr             string        `yaml:"http_addr"`
	StreamBaseURL        string        `yaml:"stream_base_url"`
	ChatEndpoint         string        `yaml:"chat_endpoint"`
	DatabaseURL          string        `yaml:"database_url"`
	RedisAddr            string        `yaml:"redis_addr"`
	RedisPassword        string        `yaml:"redis_password"`
	JWTSecret            string        `yaml:"jwt_secret"`
	NotificationLifetime time.Duration `yaml:"-"`
	HistoryCacheTTL      time.Duration `yaml:"-"`
}

// fileConfig mirrors Config for YAML decoding; durations are strings
// ("10s") or bare seconds.
type fileConfig struct {
	Config               `yaml:",inline"`
	NotificationLifetime string `yaml:"notification_lifetime"`
	HistoryCacheTTL      string `yaml:"history_cache_ttl"`
}

// Load builds the configuration: defaults first, then the YAML file
// named by DASHBOARD_CONFIG if set, then environment overrides.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:             ":8080",
		StreamBaseURL:        "ws://localhost:8000",
		ChatEndpoint:         "http://localhost:8000/api/chat/messages",
		NotificationLifetime: 5 * time.Second,
		HistoryCacheTTL:      2 * time.Minute,
	}

	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		file := fileConfig{Config: cfg}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, err
		}
		lifetime := cfg.NotificationLifetime
		ttl := cfg.HistoryCacheTTL
		cfg = file.Config
		cfg.NotificationLifetime = parseDuration(file.NotificationLifetime, lifetime)
		cfg.HistoryCacheTTL = parseDuration(file.HistoryCacheTTL, ttl)
	}

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.StreamBaseURL = getenvDefault("STREAM_BASE_URL", cfg.StreamBaseURL)
	cfg.ChatEndpoint = getenvDefault("CHAT_ENDPOINT", cfg.ChatEndpoint)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisAddr = getenvDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenvDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.JWTSecret = getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", cfg.JWTSecret))
	cfg.NotificationLifetime = getenvDuration("NOTIFICATION_LIFETIME", cfg.NotificationLifetime)
	cfg.HistoryCacheTTL = getenvDuration("HISTORY_CACHE_TTL", cfg.HistoryCacheTTL)

	if cfg.StreamBaseURL == "" {
		return cfg, errors.New("config: stream base URL required")
	}
	if cfg.ChatEndpoint == "" {
		return cfg, errors.New("config: chat endpoint required")
	}
	if cfg.NotificationLifetime <= 0 {
		return cfg, errors.New("config: notification lifetime must be positive")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	return parseDuration(os.Getenv(key), fallback)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
