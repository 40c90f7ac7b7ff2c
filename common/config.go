package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL   = "https://recrutment-api.onrender.com/api"
	DefaultUserAgent = "recruitapi/1.0"
)

// Config is the process-level client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Logging   bool
	UserAgent string

	Store         string
	Profile       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SentryDSN   string
	Environment string
}

// LoadConfig reads an optional .env file (missing files are ignored) and then
// the environment.
func LoadConfig(files ...string) Config {
	_ = godotenv.Load(files...)

	return Config{
		BaseURL:       EnvOrDefault("RECRUIT_API_BASE_URL", DefaultBaseURL),
		Timeout:       time.Duration(EnvIntOrDefault("RECRUIT_API_TIMEOUT_MS", 10000)) * time.Millisecond,
		Logging:       EnvBool("RECRUIT_API_LOGGING"),
		UserAgent:     EnvOrDefault("RECRUIT_USER_AGENT", DefaultUserAgent),
		Store:         EnvOrDefault("RECRUIT_STORE", "memory"),
		Profile:       EnvOrDefault("RECRUIT_PROFILE", "default"),
		RedisAddr:     EnvOrDefault("RECRUIT_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("RECRUIT_REDIS_PASSWORD"),
		RedisDB:       EnvIntOrDefault("RECRUIT_REDIS_DB", 0),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   EnvOrDefault("APP_ENV", "development"),
	}
}

func EnvOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

// EnvIntOrDefault returns fallback for unset, malformed or negative values.
func EnvIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func EnvBool(name string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(name)))
	return err == nil && parsed
}
