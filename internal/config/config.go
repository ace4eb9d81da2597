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
	ServiceURL     string        // Base address of the optimization service, e.g. http://localhost:5000/api
	RequestTimeout time.Duration // Transport timeout applied to every service call
	LogLevel       string
	LogPretty      bool
	LogFile        string // Used by the terminal frontend so logs don't draw over the UI
	Port           int
	DevMode        bool
	TickInterval   time.Duration // Elapsed-time tick period while a request is pending
	PresetPath     string        // Optional YAML preset applied at session start
	CORS           CORSConfig
	Preview        PreviewConfig
	Export         ExportConfig
}

// CORSConfig holds CORS-specific configuration for the session bridge
type CORSConfig struct {
	AllowedOrigins []string
}

// PreviewConfig throttles preview-count queries at the transport boundary
type PreviewConfig struct {
	RateLimit float64 // queries per second, 0 disables throttling
	Burst     int
}

// ExportConfig selects where exported artifacts are written
type ExportConfig struct {
	Dir        string
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string // Optional, for S3-compatible stores (R2, MinIO)

	S3AccessKeyID     string // Optional, the default AWS credential chain is used when empty
	S3SecretAccessKey string
}

// UseS3 reports whether artifacts go to an S3 bucket instead of the local directory.
func (e ExportConfig) UseS3() bool {
	return e.S3Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		ServiceURL:     getEnv("OPTIMIZER_SERVICE_URL", "http://localhost:5000/api"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Minute),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("LOG_PRETTY", true),
		LogFile:        getEnv("LOG_FILE", "etfoptimizer.log"),
		Port:           getEnvAsInt("BRIDGE_PORT", 8001),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		TickInterval:   getEnvAsDuration("TICK_INTERVAL", time.Second),
		PresetPath:     getEnv("PRESET_PATH", ""),
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Preview: PreviewConfig{
			RateLimit: getEnvAsFloat("PREVIEW_RATE_LIMIT", 0),
			Burst:     getEnvAsInt("PREVIEW_BURST", 5),
		},
		Export: ExportConfig{
			Dir:        getEnv("EXPORT_DIR", "."),
			S3Bucket:   getEnv("EXPORT_S3_BUCKET", ""),
			S3Prefix:   getEnv("EXPORT_S3_PREFIX", "etfoptimizer/"),
			S3Region:   getEnv("EXPORT_S3_REGION", "auto"),
			S3Endpoint: getEnv("EXPORT_S3_ENDPOINT", ""),

			S3AccessKeyID:     getEnv("EXPORT_S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey: getEnv("EXPORT_S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("OPTIMIZER_SERVICE_URL is required")
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid OPTIMIZER_SERVICE_URL %q", c.ServiceURL)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT cannot be negative, got %s", c.RequestTimeout)
	}
	if c.Preview.RateLimit < 0 {
		return fmt.Errorf("PREVIEW_RATE_LIMIT cannot be negative, got %v", c.Preview.RateLimit)
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

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
