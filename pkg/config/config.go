package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration for the control plane and for
// connections this service opens to per-client databases.
type DBConfig struct {
	// ControlPlaneDSN reaches the shared registry database. Required; the
	// service refuses to start without it.
	ControlPlaneDSN string
	// AdminDSN is a privileged connection used only for CREATE DATABASE
	// during provisioning. Defaults to the control-plane DSN.
	AdminDSN        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ProbeTimeout    time.Duration
	MigrateTimeout  time.Duration
	LogLevel        logger.LogLevel
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration for operator tokens
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// AdminConfig holds the remote-admin API configuration
type AdminConfig struct {
	APIKey string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	ServiceLabel string
}

// Config holds all configuration
type Config struct {
	DB      DBConfig
	Server  ServerConfig
	JWT     JWTConfig
	Admin   AdminConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	controlPlaneDSN := getEnv("CONTROL_PLANE_DSN", "")
	if controlPlaneDSN == "" {
		return nil, fmt.Errorf("CONTROL_PLANE_DSN is required")
	}

	// Initialize config struct with values from environment
	config := &Config{
		DB: DBConfig{
			ControlPlaneDSN: controlPlaneDSN,
			AdminDSN:        getEnv("DB_ADMIN_DSN", controlPlaneDSN),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 5*time.Second),
			ProbeTimeout:    getEnvAsDuration("DB_PROBE_TIMEOUT", 3*time.Second),
			MigrateTimeout:  getEnvAsDuration("DB_MIGRATE_TIMEOUT", 60*time.Second),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Admin: AdminConfig{
			APIKey: getEnv("ADMIN_API_KEY", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			ServiceLabel: getEnv("METRICS_SERVICE_LABEL", "client-db-service"),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("control_plane_dsn", maskDSN(c.DB.ControlPlaneDSN)),
		zap.String("server_port", c.Server.Port),
	}
}

// Helper function to mask sensitive information in DSN
func maskDSN(dsn string) string {
	// A simple implementation that hides password details
	return "***MASKED***"
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
