package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"learnlens/internal/filter"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	LogMode    string

	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	SessionDuration time.Duration
	JWTSecret       string
	TokenTTL        time.Duration

	TablesPath    string
	Timezone      string
	FilterProfile string
	ViewTTL       time.Duration

	AWSRegion      string
	SESFromEmail   string
	SESFromName    string
	AppBaseURL     string
	DigestInterval time.Duration
	DigestWorkers  int

	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
// Values that select behavior by name are checked here so that a typo stops
// startup instead of silently picking a default.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnv("PORT", "8080"),
		LogMode:    getEnv("LOG_MODE", "dev"),

		DatabaseType: getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./learnlens.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTL:        getEnvDuration("TOKEN_TTL", 12*time.Hour),

		TablesPath:    getEnv("TABLES_PATH", ""),
		Timezone:      getEnv("TIMEZONE", "UTC"),
		FilterProfile: getEnv("FILTER_PROFILE", "cascade"),
		ViewTTL:       getEnvDuration("VIEW_TTL", 30*time.Minute),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:   getEnv("SES_FROM_EMAIL", ""),
		SESFromName:    getEnv("SES_FROM_NAME", "LearnLens"),
		AppBaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		DigestInterval: getEnvDuration("DIGEST_INTERVAL", 0),
		DigestWorkers:  getEnvInt("DIGEST_WORKERS", 4),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
	}

	if _, err := filter.ConfigByName(cfg.FilterProfile); err != nil {
		return nil, fmt.Errorf("FILTER_PROFILE: %w", err)
	}
	return cfg, nil
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses values like "30m" or "24h"; bad values use the default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
