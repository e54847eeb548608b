// Package config loads process configuration from an optional .env file
// and the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	ServiceName string

	DBDriver string
	DBDSN    string

	RedisAddr    string
	KafkaBrokers []string

	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool

	UploadDir string

	AdminEmail    string
	AdminPassword string
}

// Load reads .env (if present) and returns the resolved configuration.
// Values already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	return Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		ServiceName:   getEnv("OTEL_SERVICE_NAME", "storefront-api"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBDSN:         getEnv("DB_DSN", "./data/storefront.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),
		CookieSecure:  getBool("COOKIE_SECURE", false),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
