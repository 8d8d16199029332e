package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Issuer claim for session tokens

	DatabaseFile   string // Path to SQLite database file (default: ./identity.db)
	PepperFile     string // Path to password hashing pepper file (default: ./pepper)
	SigningKeyFile string // Path to Ed25519 session signing key (default: ./session.key)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	OTPDigits      int           // Length of dispatched one-time codes (default: 4)
	OTPTTL         time.Duration // How long a code stays verifiable (default: 5m)
	ResendCooldown time.Duration // Minimum gap between dispatches per target (default: 30s)
	OTPMaxAttempts int           // Verification attempts per code (default: 5)
	ProofTTL       time.Duration // Lifetime of minted verification tokens (default: 10m)
	MobileDigits   int           // Digit count for a string to classify as mobile (default: 10)

	SessionTTL           time.Duration // Session token lifetime (default: 30 days)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-row purge interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("IDENTITY_ISSUER", "vitrine-identity"),
		DatabaseFile:   getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		PepperFile:     getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),
		SigningKeyFile: getEnvOrDefault("IDENTITY_SIGNING_KEY_FILE", "session.key"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		OTPDigits:      getEnvIntOrDefault("IDENTITY_OTP_DIGITS", 4),
		OTPTTL:         getEnvDurationOrDefault("IDENTITY_OTP_TTL", 5*time.Minute),
		ResendCooldown: getEnvDurationOrDefault("IDENTITY_RESEND_COOLDOWN", 30*time.Second),
		OTPMaxAttempts: getEnvIntOrDefault("IDENTITY_OTP_MAX_ATTEMPTS", 5),
		ProofTTL:       getEnvDurationOrDefault("IDENTITY_PROOF_TTL", 10*time.Minute),
		MobileDigits:   getEnvIntOrDefault("IDENTITY_MOBILE_DIGITS", 10),

		SessionTTL:           getEnvDurationOrDefault("IDENTITY_SESSION_TTL", 30*24*time.Hour),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
