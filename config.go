package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything read from the environment at startup. It is built
// once in main and passed into constructors so tests can inject their own
// secrets and lifetimes.
type Config struct {
	Port          string
	DSN           string
	AutoMigrate   bool
	LogLevel      string
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// loadConfig reads the environment. Every required variable that is absent or
// unparsable is an error; the caller treats that as fatal.
func loadConfig() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8081"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AutoMigrate: true,
	}

	cfg.DSN = os.Getenv("DB_DSN")
	if cfg.DSN == "" {
		return Config{}, fmt.Errorf("DB_DSN is not set; a Postgres DSN is required")
	}

	access := os.Getenv("JWT_ACCESS_SECRET")
	if access == "" {
		return Config{}, fmt.Errorf("JWT_ACCESS_SECRET is not set")
	}
	refresh := os.Getenv("JWT_REFRESH_SECRET")
	if refresh == "" {
		return Config{}, fmt.Errorf("JWT_REFRESH_SECRET is not set")
	}
	cfg.AccessSecret = []byte(access)
	cfg.RefreshSecret = []byte(refresh)

	minutes, err := requireInt("ACCESS_TOKEN_EXPIRATION_MINUTES")
	if err != nil {
		return Config{}, err
	}
	cfg.AccessTTL = time.Duration(minutes) * time.Minute

	days, err := requireInt("REFRESH_TOKEN_EXPIRATION_DAYS")
	if err != nil {
		return Config{}, err
	}
	cfg.RefreshTTL = time.Duration(days) * 24 * time.Hour

	if v := os.Getenv("DB_AUTO_MIGRATE"); v == "false" || v == "0" || v == "no" {
		cfg.AutoMigrate = false
	}

	return cfg, nil
}

func requireInt(key string) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, fmt.Errorf("%s is not set", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
