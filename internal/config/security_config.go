package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetMinPasswordLength() int
	GetSessionTTL() time.Duration
	GetRememberMeTTL() time.Duration
	GetRateLimitMaxAttempts() int
	GetRateLimitWindow() time.Duration
	GetEncryptionKey() string
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetMinPasswordLength() int {
	return getIntEnv("MIN_PASSWORD_LENGTH", 8)
}

func (Security) GetSessionTTL() time.Duration {
	return getDurationEnv("SESSION_TTL", 24*time.Hour)
}

func (Security) GetRememberMeTTL() time.Duration {
	return getDurationEnv("REMEMBER_ME_TTL", 30*24*time.Hour)
}

func (Security) GetRateLimitMaxAttempts() int {
	return getIntEnv("RATE_LIMIT_MAX_ATTEMPTS", 5)
}

func (Security) GetRateLimitWindow() time.Duration {
	return getDurationEnv("RATE_LIMIT_WINDOW", 5*time.Minute)
}

// GetEncryptionKey returns the base64-encoded 32-byte key used to encrypt
// OAuth tokens at rest. Generate one with: openssl rand -base64 32.
func (Security) GetEncryptionKey() string {
	return GetEnv("TOKEN_ENCRYPTION_KEY", "")
}

func getIntEnv(envVar string, defaultValue int) int {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
