// Package config reads service settings from the environment. An optional
// .env file is loaded by the entrypoint before this runs.
package config

import (
	"os"
	"time"
)

type Config struct {
	// HTTPAddr is the listen address for the API server.
	HTTPAddr string
	// TokenSecret signs seat tokens. Empty means a random per-process
	// secret, which invalidates tokens across restarts.
	TokenSecret string
	// DatabaseURL enables the results store when set.
	DatabaseURL string
	// PolicyURL is the endpoint backing the learned bot policy.
	PolicyURL string
	// BotTimeout bounds a single policy decision.
	BotTimeout time.Duration
	// LogLevel is a logrus level name.
	LogLevel string
}

func Load() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		TokenSecret: os.Getenv("TOKEN_SECRET"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		PolicyURL:   os.Getenv("POLICY_URL"),
		BotTimeout:  getduration("BOT_TIMEOUT", 5*time.Second),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
