package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Backend  BackendConfig
	Browser  BrowserConfig
	Sourcing SourcingConfig
	Jobs     JobsConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type BackendConfig struct {
	URL        string
	Username   string
	Password   string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  time.Duration
}

type BrowserConfig struct {
	Headless bool
	Timeout  time.Duration
}

type SourcingConfig struct {
	MaxProducts     int
	Multiplier      float64
	FXRate          float64
	MinReviews      int
	RequireVerified bool
	Workers         int
}

type JobsConfig struct {
	PollInterval   time.Duration
	OutboxInterval time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

var ErrMissingCredentials = errors.New("BACKEND_USERNAME and BACKEND_PASSWORD are required")

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getIntOrDefault("SERVER_PORT", 8084),
			ReadTimeout:  getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "sourcing_triads"),
			SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 20)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:sourcing_triads"),
		},
		Backend: BackendConfig{
			URL:        getEnvOrDefault("BACKEND_URL", "https://realtime.oxylabs.io/v1/queries"),
			Username:   getEnvOrDefault("BACKEND_USERNAME", ""),
			Password:   getEnvOrDefault("BACKEND_PASSWORD", ""),
			Timeout:    getDurationOrDefault("BACKEND_TIMEOUT", 120*time.Second),
			MaxRetries: getIntOrDefault("BACKEND_MAX_RETRIES", 3),
			RateLimit:  getDurationOrDefault("BACKEND_RATE_LIMIT", 2*time.Second),
		},
		Browser: BrowserConfig{
			Headless: getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:  getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
		},
		Sourcing: SourcingConfig{
			MaxProducts:     getIntOrDefault("SOURCING_MAX_PRODUCTS", 50),
			Multiplier:      getFloatOrDefault("SOURCING_MULTIPLIER", 3.0),
			FXRate:          getFloatOrDefault("SOURCING_FX_RATE", 0),
			MinReviews:      getIntOrDefault("SOURCING_MIN_REVIEWS", 1),
			RequireVerified: getBoolOrDefault("SOURCING_REQUIRE_VERIFIED", true),
			Workers:         getIntOrDefault("SOURCING_WORKERS", 4),
		},
		Jobs: JobsConfig{
			PollInterval:   getDurationOrDefault("JOBS_POLL_INTERVAL", 5*time.Second),
			OutboxInterval: getDurationOrDefault("OUTBOX_POLL_INTERVAL", time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Sourcing.Multiplier <= 0 {
		return fmt.Errorf("SOURCING_MULTIPLIER must be greater than 0")
	}
	if c.Sourcing.MaxProducts <= 0 {
		return fmt.Errorf("SOURCING_MAX_PRODUCTS must be greater than 0")
	}
	if c.Sourcing.Workers < 1 {
		return fmt.Errorf("SOURCING_WORKERS must be at least 1")
	}
	if c.Sourcing.MinReviews < 0 {
		return fmt.Errorf("SOURCING_MIN_REVIEWS cannot be negative")
	}
	if c.Sourcing.FXRate < 0 {
		return fmt.Errorf("SOURCING_FX_RATE cannot be negative")
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("BACKEND_MAX_RETRIES cannot be negative")
	}
	return nil
}

// ValidateBackend checks the settings only the backend fetcher needs.
func (c *Config) ValidateBackend() error {
	if c.Backend.Username == "" || c.Backend.Password == "" {
		return ErrMissingCredentials
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	return nil
}

// DatabaseURL builds a postgres connection string.
func (c *DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
