// Package config centralizes the environment variables consumed by the API
// binary.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config aggregates every parameter the API needs. The boolean voting toggles
// (results visible, challenge required, test mode) are NOT here: those live in
// the settings table so an admin flip applies on the next request.
type Config struct {
	HTTPAddress string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TotalSeats int

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string

	TurnstileSecret string

	AutoMigrate bool
	AdminToken  string
}

func Load() (Config, error) {
	// Defaults favour local runs; env vars override in Docker/K8s.
	cfg := Config{
		HTTPAddress:            getEnv("HTTP_ADDRESS", ":8080"),
		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:           getEnv("POSTGRES_USER", "tegenstem"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "tegenstem"),
		PostgresDB:             getEnv("POSTGRES_DB", "tegenstem_votes"),
		PostgresSSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		TotalSeats:             getEnvAsInt("TOTAL_SEATS", 150),
		RateLimitEnabled:       getEnvAsBool("ANTIFRAUD_RATE_LIMIT_ENABLED", true),
		RateLimitMaxActions:    getEnvAsInt("ANTIFRAUD_RATE_LIMIT_MAX", 30),
		RateLimitWindowSeconds: getEnvAsInt("ANTIFRAUD_RATE_LIMIT_WINDOW", 60),
		RateLimitKeyPrefix:     getEnv("ANTIFRAUD_RATE_LIMIT_PREFIX", "ratelimit"),
		TurnstileSecret:        os.Getenv("TURNSTILE_SECRET"),
		AutoMigrate:            getEnvAsBool("DB_AUTO_MIGRATE", true),
		AdminToken:             os.Getenv("ADMIN_TOKEN"),
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = dbInt

	if cfg.TotalSeats <= 0 {
		return Config{}, fmt.Errorf("config: TOTAL_SEATS must be positive, got %d", cfg.TotalSeats)
	}

	return cfg, nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
