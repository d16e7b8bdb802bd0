// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (status page dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// RedisAddr is the host:port of the Redis server notifications are
	// published to. Empty disables notifications.
	RedisAddr string

	// NotifyChannel is the Redis pub/sub channel. Defaults to "statuspage-incidents".
	NotifyChannel string

	// SaveRetryAttempts is the number of tries per save step. Defaults to 3.
	SaveRetryAttempts int

	// SaveRetryBaseDelay is the first backoff interval between tries. Defaults to 100ms.
	SaveRetryBaseDelay time.Duration

	// MaxBodyBytes caps request body size. Defaults to 1 MiB.
	MaxBodyBytes int64

	// RunMigrations applies pending schema migrations at startup. Defaults to true.
	RunMigrations bool
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		NotifyChannel: getEnv("NOTIFY_CHANNEL", "statuspage-incidents"),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	var err error
	if cfg.SaveRetryAttempts, err = strconv.Atoi(getEnv("SAVE_RETRY_ATTEMPTS", "3")); err != nil || cfg.SaveRetryAttempts < 1 {
		invalid = append(invalid, "SAVE_RETRY_ATTEMPTS")
	}
	if cfg.SaveRetryBaseDelay, err = time.ParseDuration(getEnv("SAVE_RETRY_BASE_DELAY", "100ms")); err != nil || cfg.SaveRetryBaseDelay <= 0 {
		invalid = append(invalid, "SAVE_RETRY_BASE_DELAY")
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64); err != nil || cfg.MaxBodyBytes < 1 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}
	if cfg.RunMigrations, err = strconv.ParseBool(getEnv("RUN_MIGRATIONS", "true")); err != nil {
		invalid = append(invalid, "RUN_MIGRATIONS")
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "required environment variables not set: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
