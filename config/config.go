package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultAllocationMaxAttempts is how many times a case number allocation is tried
	// before the request fails with a concurrency conflict
	DefaultAllocationMaxAttempts = 5
)

type Config struct {
	ServerPort  string
	Environment string
	// Database (first match wins: Postgres, Turso, local SQLite)
	DatabaseURL      string
	TursoDatabaseURL string
	TursoAuthToken   string
	DBPath           string
	AutoMigrate      bool
	// HTTP
	AllowedOrigins     []string
	RateLimitPerMinute int
	// Case engine budgets
	AllocationMaxAttempts int
	AllocationTimeout     time.Duration
	TimelineTimeout       time.Duration
	// Background jobs
	ReconcileSchedule string
	ReconcileTimezone string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		TursoDatabaseURL:      getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:        os.Getenv("TURSO_AUTH_TOKEN"),
		DBPath:                getEnv("DB_PATH", "db/app.db"),
		AutoMigrate:           getEnvBool("AUTO_MIGRATE", true),
		AllowedOrigins:        strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		AllocationMaxAttempts: getEnvInt("ALLOCATION_MAX_ATTEMPTS", DefaultAllocationMaxAttempts),
		AllocationTimeout:     getEnvDuration("ALLOCATION_TIMEOUT", 5*time.Second),
		TimelineTimeout:       getEnvDuration("TIMELINE_TIMEOUT", 3*time.Second),
		ReconcileSchedule:     getEnv("RECONCILE_SCHEDULE", "30 2 * * *"),
		ReconcileTimezone:     getEnv("RECONCILE_TIMEZONE", "UTC"),
	}

	if cfg.AllocationMaxAttempts < 1 {
		log.Printf("[WARNING] ALLOCATION_MAX_ATTEMPTS must be at least 1, using %d", DefaultAllocationMaxAttempts)
		cfg.AllocationMaxAttempts = DefaultAllocationMaxAttempts
	}

	return cfg
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("Using default value for %s: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[WARNING] Invalid integer for %s (%q), using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvDuration accepts Go duration strings ("750ms", "5s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("[WARNING] Invalid duration for %s (%q), using default %s", key, value, defaultValue)
	return defaultValue
}
