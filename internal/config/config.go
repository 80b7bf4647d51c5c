package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionSecret   string
	SessionIssuer   string
	SessionDuration time.Duration
	OTPTTL          time.Duration
	OTPRetention    time.Duration
	OTPSendLimit    int
	OTPSendWindow   time.Duration
	RateLimit       int
	RateLimitWindow time.Duration
	RedisAddr       string
	RedisPassword   string
	AWSRegion       string
	SESFromEmail    string
	SESFromName     string
	LogMode         string
	Debug           bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory (or the file named by ENV_FILE) is loaded first
// when present; variables already set in the environment win.
func Load() *Config {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	return &Config{
		ServerPort:      getEnv("PORT", "5000"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./shiksha_leap.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionIssuer:   getEnv("SESSION_ISSUER", "shiksha-leap"),
		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		OTPTTL:          getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPRetention:    getEnvDuration("OTP_RETENTION", 24*time.Hour),
		OTPSendLimit:    getEnvInt("OTP_SEND_LIMIT", 5),
		OTPSendWindow:   getEnvDuration("OTP_SEND_WINDOW", 10*time.Minute),
		RateLimit:       getEnvInt("RATE_LIMIT", 30),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		AWSRegion:       getEnv("AWS_REGION", "ap-south-1"),
		SESFromEmail:    getEnv("SES_FROM_EMAIL", ""),
		SESFromName:     getEnv("SES_FROM_NAME", "Shiksha Leap"),
		LogMode:         getEnv("LOG_MODE", "development"),
		Debug:           getEnvBool("DEBUG", false),
	}
}

// ErrSessionSecretRequired is returned in production when SESSION_SECRET is unset
var ErrSessionSecretRequired = errors.New("SESSION_SECRET must be set in production")

// IsProduction reports whether LOG_MODE selects production
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.LogMode)) {
	case "prod", "production":
		return true
	}
	return false
}

// SessionSigningSecret returns the key that signs session tokens. Without
// SESSION_SECRET, production fails and other modes get a random per-process
// key; generated reports the latter.
func (c *Config) SessionSigningSecret() (secret string, generated bool, err error) {
	if c.SessionSecret != "" {
		return c.SessionSecret, false, nil
	}
	if c.IsProduction() {
		return "", false, ErrSessionSecretRequired
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", false, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), true, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
