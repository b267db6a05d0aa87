package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	Environment    string // "development" or "production"
	AllowedOrigins []string

	// Database
	DatabaseType   string // sqlite (default), postgres, mysql
	DatabasePath   string // sqlite only
	DatabaseURL    string // postgres/mysql
	MigrationsPath string

	// Static assets (generated patient audio is served from here)
	StaticFilesPath string

	// Identity provider (bearer token verification)
	AuthJWKSURL  string
	AuthIssuer   string
	AuthAudience string

	// Session expiry policy for join validation. The original deployment
	// never pinned these down, so both are operator-tunable.
	CountdownGracePeriod time.Duration
	MaxActivityDuration  time.Duration

	// AI patient chat
	OpenRouterAPIKey string
	OpenRouterModel  string
	ChatRateInterval time.Duration

	// ElevenLabs speech synthesis (optional)
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string

	// Email (AWS SES)
	AWSRegion  string
	FromEmail  string
	FromName   string
	AppBaseURL string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		Environment:    getEnv("APP_ENV", "development"),
		AllowedOrigins: splitEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://localhost:3000"),

		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./nursescript.db"),
		DatabaseURL:    getEnv("DB_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		StaticFilesPath: getEnv("STATIC_PATH", "./static"),

		AuthJWKSURL:  getEnv("AUTH_JWKS_URL", ""),
		AuthIssuer:   getEnv("AUTH_ISSUER", ""),
		AuthAudience: getEnv("AUTH_AUDIENCE", ""),

		CountdownGracePeriod: minutesEnv("COUNTDOWN_GRACE_MINUTES", 10),
		MaxActivityDuration:  minutesEnv("MAX_ACTIVITY_MINUTES", 30),

		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct"),
		ChatRateInterval: time.Second,

		ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "EXAVITQu4vr4xnSDxMaL"),

		AWSRegion:  getEnv("AWS_REGION", "us-east-1"),
		FromEmail:  getEnv("SES_FROM_EMAIL", ""),
		FromName:   getEnv("SES_FROM_NAME", "NurseScript Team"),
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),
	}
}

// IsDevelopment reports whether error details may be exposed in responses
func (c *Config) IsDevelopment() bool {
	return c.Environment != "production"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitEnv reads a comma-separated environment variable
func splitEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// minutesEnv reads an integer minute count or returns a default value
func minutesEnv(key string, defaultMinutes int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(defaultMinutes) * time.Minute
}
