// Package config provides configuration management for the cashback engine.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Queue    QueueConfig
	Sync     SyncConfig
	Rates    RatesConfig
	Networks NetworksConfig
	Notify   NotifyConfig
	Logging  LoggingConfig
}

// ServerConfig holds operator API server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// QueueConfig holds durable queue and worker configuration
type QueueConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	PopTimeout time.Duration
}

// SyncConfig holds reconciliation synchronizer configuration
type SyncConfig struct {
	Interval   time.Duration
	WindowDays int
	LockTTL    time.Duration
	PageLimit  int
}

// RatesConfig holds the platform commission and cashback rates applied to
// affiliate-reported transaction amounts
type RatesConfig struct {
	Commission float64
	Cashback   float64
}

// NetworksConfig holds affiliate network credentials
type NetworksConfig struct {
	AdmitadClientID     string
	AdmitadClientSecret string
	AdmitadAccessToken  string
	VCommissionToken    string
	CueLinksAPIKey      string
	RequestsPerSecond   int
}

// NotifyConfig holds notification provider configuration.
// Empty provider keys put delivery in log-only mode.
type NotifyConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	MSG91AuthKey   string
	MSG91SenderID  string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "cashback"),
				User:           getEnv("POSTGRES_USER", "cashback"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "cashback"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		Queue: QueueConfig{
			MaxRetries: getEnvAsInt("QUEUE_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("QUEUE_RETRY_DELAY", 60*time.Second),
			PopTimeout: getEnvAsDuration("QUEUE_POP_TIMEOUT", 5*time.Second),
		},
		Sync: SyncConfig{
			Interval:   getEnvAsDuration("SYNC_INTERVAL", 6*time.Hour),
			WindowDays: getEnvAsInt("SYNC_WINDOW_DAYS", 7),
			LockTTL:    getEnvAsDuration("SYNC_LOCK_TTL", time.Hour),
			PageLimit:  getEnvAsInt("SYNC_PAGE_LIMIT", 200),
		},
		Rates: RatesConfig{
			Commission: getEnvAsFloat("COMMISSION_RATE", 0.05),
			Cashback:   getEnvAsFloat("CASHBACK_RATE", 0.03),
		},
		Networks: NetworksConfig{
			AdmitadClientID:     getEnv("ADMITAD_CLIENT_ID", ""),
			AdmitadClientSecret: getEnv("ADMITAD_CLIENT_SECRET", ""),
			AdmitadAccessToken:  getEnv("ADMITAD_ACCESS_TOKEN", ""),
			VCommissionToken:    getEnv("VCOMMISSION_TOKEN", ""),
			CueLinksAPIKey:      getEnv("CUELINKS_API_KEY", ""),
			RequestsPerSecond:   getEnvAsInt("NETWORK_REQUESTS_PER_SECOND", 5),
		},
		Notify: NotifyConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("FROM_EMAIL", "noreply@couponali.com"),
			FromName:       getEnv("FROM_NAME", "CouponAli"),
			MSG91AuthKey:   getEnv("MSG91_AUTH_KEY", ""),
			MSG91SenderID:  getEnv("MSG91_SENDER_ID", "COUPON"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
