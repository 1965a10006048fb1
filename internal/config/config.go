// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the matching service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string // e.g. "fr", "gb", "us"

	GeminiAPIKey string
	GeminiModel  string

	DiscoveryIntervalHours int // how often the daily batch fires

	LogJSON  bool
	LogDebug bool
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8082")
	v.SetDefault("ADZUNA_COUNTRY", "fr")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("DISCOVERY_INTERVAL_HOURS", 24)
	v.SetDefault("LOG_JSON", true)
	v.SetDefault("LOG_DEBUG", false)

	cfg := &Config{
		Port:                   v.GetString("PORT"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		RedisURL:               v.GetString("REDIS_URL"),
		AdzunaAppID:            v.GetString("ADZUNA_APP_ID"),
		AdzunaAppKey:           v.GetString("ADZUNA_APP_KEY"),
		AdzunaCountry:          v.GetString("ADZUNA_COUNTRY"),
		GeminiAPIKey:           v.GetString("GEMINI_API_KEY"),
		GeminiModel:            v.GetString("GEMINI_MODEL"),
		DiscoveryIntervalHours: v.GetInt("DISCOVERY_INTERVAL_HOURS"),
		LogJSON:                v.GetBool("LOG_JSON"),
		LogDebug:               v.GetBool("LOG_DEBUG"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.DiscoveryIntervalHours < 1 {
		return nil, fmt.Errorf("DISCOVERY_INTERVAL_HOURS must be a positive integer, got %d", cfg.DiscoveryIntervalHours)
	}

	return cfg, nil
}
