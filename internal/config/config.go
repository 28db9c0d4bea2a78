// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      int
	LogLevel  string
	LogPretty bool
	DevMode   bool
	Predictor PredictorConfig
	Sessions  SessionConfig
	Charts    ChartConfig
}

// PredictorConfig configures the upstream prediction service client
type PredictorConfig struct {
	URL          string        // Full endpoint URL, e.g. http://127.0.0.1:5000/predict
	Timeout      time.Duration // Per-request timeout (model inference is slow)
	RatePerSec   float64       // Upstream calls per second across all sessions
	MaxBodyBytes int64         // Upper bound on the response body we are willing to read
}

// SessionConfig configures dashboard session lifetime
type SessionConfig struct {
	TTL           time.Duration // Idle sessions older than this are dropped
	SweepSchedule string        // cron schedule for the sweep job
}

// ChartConfig holds chart rendering defaults
type ChartConfig struct {
	DefaultWidth int // Used when the browser does not report the panel width
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnvAsInt("GO_PORT", 8080),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		Predictor: PredictorConfig{
			URL:          getEnv("PREDICTOR_URL", "http://127.0.0.1:5000/predict"),
			Timeout:      getEnvAsDuration("PREDICTOR_TIMEOUT", 120*time.Second),
			RatePerSec:   getEnvAsFloat("PREDICTOR_RATE_PER_SEC", 2),
			MaxBodyBytes: int64(getEnvAsInt("PREDICTOR_MAX_BODY_BYTES", 32<<20)),
		},
		Sessions: SessionConfig{
			TTL:           getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			SweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),
		},
		Charts: ChartConfig{
			DefaultWidth: getEnvAsInt("CHART_DEFAULT_WIDTH", 950),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	u, err := url.Parse(c.Predictor.URL)
	if err != nil {
		return fmt.Errorf("invalid PREDICTOR_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid PREDICTOR_URL %q: scheme must be http or https", c.Predictor.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid PREDICTOR_URL %q: missing host", c.Predictor.URL)
	}

	if c.Predictor.Timeout <= 0 {
		return fmt.Errorf("PREDICTOR_TIMEOUT must be positive")
	}
	if c.Predictor.RatePerSec <= 0 {
		return fmt.Errorf("PREDICTOR_RATE_PER_SEC must be positive")
	}
	if c.Predictor.MaxBodyBytes <= 0 {
		return fmt.Errorf("PREDICTOR_MAX_BODY_BYTES must be positive")
	}
	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if strings.TrimSpace(c.Sessions.SweepSchedule) == "" {
		return fmt.Errorf("SESSION_SWEEP_SCHEDULE must not be empty")
	}
	if c.Charts.DefaultWidth <= 0 {
		return fmt.Errorf("CHART_DEFAULT_WIDTH must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
