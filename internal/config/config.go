package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string
	SiteURL string

	IdentityURL        string
	IdentityAnonKey    string
	IdentityServiceKey string

	MailProvider string // "resend" | "smtp"
	MailFrom     string
	ResendAPIKey string
	ResendURL    string // empty in prod, set to a stub URL in tests
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	ChallengeBackend string // "cookie" | "memory" | "redis" | "dynamo"
	ChallengeSecret  string // HMAC key for the signed cookie backend
	ChallengeTTL     time.Duration
	ResendCooldown   time.Duration

	RedisAddr     string
	RedisPassword string

	AWSRegion            string
	AWSEndpointURL       string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID       string
	AWSSecretKey         string
	DynamoChallengeTable string

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),
		SiteURL: getEnv("SITE_URL", "http://localhost:3000"),

		IdentityURL:        getEnv("IDENTITY_URL", "http://localhost:9999"),
		IdentityAnonKey:    getEnv("IDENTITY_ANON_KEY", ""),
		IdentityServiceKey: getEnv("IDENTITY_SERVICE_ROLE_KEY", ""),

		MailProvider: getEnv("MAIL_PROVIDER", "resend"),
		MailFrom:     getEnv("MAIL_FROM", "noreply@example.com"),
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		ResendURL:    getEnv("RESEND_URL", ""),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		ChallengeBackend: getEnv("CHALLENGE_BACKEND", "cookie"),
		ChallengeSecret:  getEnv("CHALLENGE_SECRET", ""),
		ChallengeTTL:     getEnvDuration("CHALLENGE_TTL", 10*time.Minute),
		ResendCooldown:   getEnvDuration("RESEND_COOLDOWN", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:       getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:         getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoChallengeTable: getEnv("DYNAMO_TABLE_CHALLENGES", "verification_challenges"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// IsProduction reports whether cookies should carry the Secure attribute.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
