package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultCorrelationKey is the phone value used for web/test calls, which carry no real number.
	DefaultCorrelationKey = "web_call"

	DefaultOpenMicBaseURL = "https://api.openmic.ai/v1"
)

// BridgeConfig holds the configuration for the OpenMic visitor bridge
type BridgeConfig struct {
	Port   string
	LogEnv string

	// Phone key used to resolve the current caller on precall/postcall.
	// Real per-caller identification is not implemented yet.
	DefaultCorrelationKey string

	// OpenMic bot-hosting API
	OpenMicBaseURL string
	OpenMicAPIKey  string
	OpenMicTimeout time.Duration

	// Admin API protection; empty disables the check (development mode)
	AdminSecretKey string

	// Redis employee cache
	RedisEnabled     bool
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	EmployeeCacheTTL time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig holds the default configuration values
var DefaultConfig = BridgeConfig{
	Port:                  "3000",
	LogEnv:                "development",
	DefaultCorrelationKey: DefaultCorrelationKey,
	OpenMicBaseURL:        DefaultOpenMicBaseURL,
	OpenMicTimeout:        30 * time.Second,
	RedisEnabled:          false,
	RedisHost:             "localhost",
	RedisPort:             "6379",
	RedisDB:               0,
	EmployeeCacheTTL:      10 * time.Minute,
	ShutdownTimeout:       10 * time.Second,
}

// Load reads the bridge configuration from environment variables.
// The .env file, if any, is loaded by main before this is called.
func Load() *BridgeConfig {
	cfg := DefaultConfig

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.LogEnv = getEnvOrDefault("LOG_ENV", cfg.LogEnv)
	cfg.DefaultCorrelationKey = strings.TrimSpace(getEnvOrDefault("DEFAULT_CORRELATION_KEY", cfg.DefaultCorrelationKey))
	if cfg.DefaultCorrelationKey == "" {
		cfg.DefaultCorrelationKey = DefaultCorrelationKey
	}

	cfg.OpenMicBaseURL = strings.TrimRight(getEnvOrDefault("OPENMIC_BASE_URL", cfg.OpenMicBaseURL), "/")
	cfg.OpenMicAPIKey = getEnvOrDefault("OPENMIC_API_KEY", "")
	cfg.OpenMicTimeout = getEnvAsSecondsOrDefault("OPENMIC_TIMEOUT_SECONDS", cfg.OpenMicTimeout)

	cfg.AdminSecretKey = getEnvOrDefault("ADMIN_SECRET_KEY", "")

	cfg.RedisEnabled = getEnvAsBoolOrDefault("REDIS_ENABLED", cfg.RedisEnabled)
	cfg.RedisHost = getEnvOrDefault("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnvOrDefault("REDIS_PORT", cfg.RedisPort)
	cfg.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvAsIntOrDefault("REDIS_DB", cfg.RedisDB)
	cfg.EmployeeCacheTTL = time.Duration(getEnvAsIntOrDefault("EMPLOYEE_CACHE_TTL_MINUTES", int(cfg.EmployeeCacheTTL/time.Minute))) * time.Minute

	cfg.ShutdownTimeout = getEnvAsSecondsOrDefault("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeout)

	return &cfg
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
