package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL       string
	RedisURL          string
	ServerPort        string
	BaseURL           string
	FrontendURL       string
	ConnectorBotID    string
	ConnectorToken    string
	OpenAIKey         string
	AIModel           string
	ReminderInterval  time.Duration
	SweepInterval     time.Duration
	PassLockTTL       time.Duration
	AuthIssuer        string
	AuthJWKSURL       string
	AuthAudience      string
	RateLimit         string
	SchedulerDebug    bool
	ServerDebugMode   bool
	OTELEnabled       bool
	OTELEndpoint      string
	DisablePassLock   bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		ConnectorBotID:   getEnv("CONNECTOR_BOT_ID", ""),
		ConnectorToken:   getEnv("CONNECTOR_TOKEN", ""),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", ""),
		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", 6*time.Hour),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 24*time.Hour),
		PassLockTTL:      getEnvDuration("PASS_LOCK_TTL", 5*time.Minute),
		AuthIssuer:       getEnv("AUTH_ISSUER", ""),
		AuthJWKSURL:      getEnv("AUTH_JWKS_URL", ""),
		AuthAudience:     getEnv("AUTH_AUDIENCE", ""),
		RateLimit:        getEnv("RATE_LIMIT", "10-S"),
		SchedulerDebug:   getEnvBool("SCHEDULER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		DisablePassLock:  getEnvBool("DISABLE_PASS_LOCK", false),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.ConnectorToken == "" {
		return nil, fmt.Errorf("CONNECTOR_TOKEN is required for proactive delivery")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
