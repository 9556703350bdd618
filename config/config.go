package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV    string
	SERVICE   string
	PORT      int
	HOST      string
	LOG_LEVEL string
	// Database
	DATABASE_URL string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	JWT_EXPIRY time.Duration
	// Messaging
	NATS_URL string
	// Redis Configuration
	REDIS_URL string
	// Gateway upstreams
	USER_SVC_URL        string
	LESSON_SVC_URL      string
	ACHIEVEMENT_SVC_URL string
	GATEWAY_AUTH_GUARD  bool
	// HTTP security
	ALLOWED_ORIGINS   string
	RATE_LIMIT_MAX    int
	RATE_LIMIT_WINDOW time.Duration
	// Achievement engine
	SILVER_THRESHOLD         int
	CRON_ENABLED             bool
	EVENT_LOG_RETENTION_DAYS int
}

func Get() (*EnvironmentVariable, error) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 0
	}

	jwtExpiry, err := parseDuration("JWT_EXPIRY", 8*time.Hour)
	if err != nil {
		return nil, err
	}

	rateLimitWindow, err := parseDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	envVariables := &EnvironmentVariable{
		GO_ENV:    os.Getenv("GO_ENV"),
		SERVICE:   strings.ToLower(os.Getenv("SERVICE")),
		PORT:      port,
		HOST:      os.Getenv("HOST"),
		LOG_LEVEL: getOrDefault("LOG_LEVEL", "info"),
		// Database
		DATABASE_URL: databaseURL(),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getOrDefault("JWT_ISSUER", "learnhub"),
		JWT_EXPIRY: jwtExpiry,
		// Messaging
		NATS_URL: getOrDefault("NATS_URL", "nats://nats:4222"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Gateway
		USER_SVC_URL:        getOrDefault("USER_SVC_URL", "http://user:3001"),
		LESSON_SVC_URL:      getOrDefault("LESSON_SVC_URL", "http://lesson:3002"),
		ACHIEVEMENT_SVC_URL: getOrDefault("ACHIEVEMENT_SVC_URL", "http://achievement:3003"),
		GATEWAY_AUTH_GUARD:  os.Getenv("GATEWAY_AUTH_GUARD") == "true",
		// Security
		ALLOWED_ORIGINS:   getOrDefault("ALLOWED_ORIGINS", "*"),
		RATE_LIMIT_MAX:    getIntOrDefault("RATE_LIMIT_MAX", 200),
		RATE_LIMIT_WINDOW: rateLimitWindow,
		// Achievements
		SILVER_THRESHOLD:         getIntOrDefault("SILVER_THRESHOLD", 3),
		CRON_ENABLED:             os.Getenv("CRON_ENABLED") != "false", // Default to enabled
		EVENT_LOG_RETENTION_DAYS: getIntOrDefault("EVENT_LOG_RETENTION_DAYS", 30),
	}

	return envVariables, nil
}

// IsProduction reports whether GO_ENV is "production"
func (e *EnvironmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

// ListenAddress returns HOST:PORT, falling back to the given default port
func (e *EnvironmentVariable) ListenAddress(defaultPort int) string {
	port := e.PORT
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", e.HOST, port)
}

// databaseURL prefers DATABASE_URL and otherwise assembles a DSN from the DB_* variables
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	if os.Getenv("DB_NAME") == "" {
		return ""
	}

	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getOrDefault("DB_HOST", "localhost"),
		os.Getenv("DB_USER_NAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		getOrDefault("DB_PORT", "5432"),
		getOrDefault("DB_SSL_MODE", "disable"),
	)
}

func getOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntOrDefault(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
