package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read through this package only.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Evaluation engine
	Evaluation EvaluationConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool

	// TTL for cached factor scores
	ScoreTTL time.Duration
}

// EvaluationConfig holds factor evaluation engine settings
type EvaluationConfig struct {
	// MinSamples is the minimum number of valid (score, return) pairs
	// required before a date's rank IC is considered defined.
	MinSamples int

	// NGroups is the default number of quantile buckets for the group
	// backtest. Must be >= 2.
	NGroups int

	// MaxWorkers bounds the per-date worker pool.
	MaxWorkers int

	// FetchTimeout applies to each provider call for a single date.
	FetchTimeout time.Duration

	// FailureRateThreshold is the fraction of dates allowed to fail
	// (timeout or provider error) before the whole evaluation aborts.
	FailureRateThreshold float64

	// MonotonicTolerance absorbs floating-point noise when checking
	// bucket return monotonicity.
	MonotonicTolerance float64

	// AllowOverlapHorizon permits forward-return horizons that extend
	// past the next schedule date. Off by default to avoid overlap bias.
	AllowOverlapHorizon bool

	// FetchRateLimit caps provider calls per second (0 = unlimited).
	FetchRateLimit float64

	// ReportDir is where the file-backed report store writes, when the
	// file backend is selected.
	ReportDir string

	// StoreBackend selects report persistence: "postgres" or "file".
	StoreBackend string
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			ScoreTTL: getEnvAsDuration("REDIS_SCORE_TTL", "24h"),
		},

		// Evaluation engine
		Evaluation: EvaluationConfig{
			MinSamples:           getEnvAsInt("EVAL_MIN_SAMPLES", 3),
			NGroups:              getEnvAsInt("EVAL_N_GROUPS", 5),
			MaxWorkers:           getEnvAsInt("EVAL_MAX_WORKERS", 8),
			FetchTimeout:         getEnvAsDuration("EVAL_FETCH_TIMEOUT", "30s"),
			FailureRateThreshold: getEnvAsFloat("EVAL_FAILURE_RATE_THRESHOLD", 0.2),
			MonotonicTolerance:   getEnvAsFloat("EVAL_MONOTONIC_TOLERANCE", 1e-9),
			AllowOverlapHorizon:  getEnvAsBool("EVAL_ALLOW_OVERLAP_HORIZON", false),
			FetchRateLimit:       getEnvAsFloat("EVAL_FETCH_RATE_LIMIT", 0),
			ReportDir:            getEnv("EVAL_REPORT_DIR", "reports"),
			StoreBackend:         getEnv("EVAL_STORE_BACKEND", "postgres"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Evaluation.StoreBackend != "postgres" && c.Evaluation.StoreBackend != "file" {
		return fmt.Errorf("EVAL_STORE_BACKEND must be one of: postgres, file")
	}

	// Postgres is required unless the file backend is selected
	if c.Evaluation.StoreBackend == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required with the postgres store backend")
	}

	if c.Evaluation.NGroups < 2 {
		return fmt.Errorf("EVAL_N_GROUPS must be >= 2")
	}

	if c.Evaluation.MinSamples < 2 {
		return fmt.Errorf("EVAL_MIN_SAMPLES must be >= 2")
	}

	if c.Evaluation.MaxWorkers < 1 {
		return fmt.Errorf("EVAL_MAX_WORKERS must be >= 1")
	}

	if c.Evaluation.FailureRateThreshold < 0 || c.Evaluation.FailureRateThreshold > 1 {
		return fmt.Errorf("EVAL_FAILURE_RATE_THRESHOLD must be in [0, 1]")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
