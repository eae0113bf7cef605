package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrEmptyEnvironmentVariable = errors.New("empty environment variable")

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Auth       AuthConfig
	Services   ServicesConfig
	Tracking   TrackingConfig
	WorkerPool WorkerPoolConfig
	Server     ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Username string
	Password string
	Name     string
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	JWTSecret string
}

// ServicesConfig holds external service API keys and configuration
type ServicesConfig struct {
	ResendAPIKey       string
	DefaultEmailSender string
}

// TrackingConfig holds tracking-link generation settings
type TrackingConfig struct {
	// BaseURL is the public origin embedded in fake links and tracking pixels.
	BaseURL string
	// TokenTTL bounds how long a tracking token stays valid. Zero means
	// tokens never expire, matching long-running simulations.
	TokenTTL time.Duration
}

// WorkerPoolConfig holds worker pool configuration for email delivery
type WorkerPoolConfig struct {
	DeliveryWorkers int     // Number of workers draining the delivery queue
	QueueSize       int     // Buffered queue capacity before Submit blocks
	SendRatePerSec  float64 // Outbound email rate limit across all workers
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
}

// Load reads and validates all required environment variables
func Load() (*Config, error) {
	// Load env.local in non-production environments
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load("env.local"); err != nil {
			return nil, fmt.Errorf("failed to load env.local: %w", err)
		}
	}

	cfg := &Config{}

	// Database configuration
	var err error
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Username, err = requireEnv("DB_USERNAME"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.Name, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Auth configuration
	if cfg.Auth.JWTSecret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}

	// Services configuration
	if cfg.Services.ResendAPIKey, err = requireEnv("RESEND_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.Services.DefaultEmailSender, err = requireEnv("DEFAULT_EMAIL_SENDER_ADDRESS"); err != nil {
		return nil, err
	}

	// Tracking configuration
	if cfg.Tracking.BaseURL, err = requireEnv("TRACKING_BASE_URL"); err != nil {
		return nil, err
	}
	tokenTTL := getEnvWithDefault("TRACKING_TOKEN_TTL", "0s")
	cfg.Tracking.TokenTTL, err = time.ParseDuration(tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TRACKING_TOKEN_TTL: %w", err)
	}

	// Worker pool configuration
	deliveryWorkers := getEnvWithDefault("DELIVERY_WORKERS", "5")
	cfg.WorkerPool.DeliveryWorkers, err = strconv.Atoi(deliveryWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DELIVERY_WORKERS: %w", err)
	}

	queueSize := getEnvWithDefault("DELIVERY_QUEUE_SIZE", "100")
	cfg.WorkerPool.QueueSize, err = strconv.Atoi(queueSize)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DELIVERY_QUEUE_SIZE: %w", err)
	}

	sendRate := getEnvWithDefault("DELIVERY_SEND_RATE", "10")
	cfg.WorkerPool.SendRatePerSec, err = strconv.ParseFloat(sendRate, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DELIVERY_SEND_RATE: %w", err)
	}

	// Server configuration
	serverPort, err := requireEnv("SERVER_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, err = strconv.Atoi(serverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SERVER_PORT: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		c.Username, c.Password, c.Host, c.Name)
}

// requireEnv retrieves an environment variable or returns an error if empty
func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set: %w", key, ErrEmptyEnvironmentVariable)
	}
	return value, nil
}

// getEnvWithDefault retrieves an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
