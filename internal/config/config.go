package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// minJWTSecret matches jwtinfra.MinSecretLen.
const minJWTSecret = 32

// Store drivers.
const (
	StoreDynamo   = "dynamo"
	StorePostgres = "postgres"
)

// Mail drivers.
const (
	MailSMTP = "smtp"
	MailLog  = "log"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppHost   string
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string
	LogFile   string // empty logs to stdout only

	StoreDriver    string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	DatabaseURL    string

	RedisAddr     string // empty disables the resend cooldown
	RedisPassword string
	RedisDB       int

	MailDriver   string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPInsecure bool
	SMTPTimeout  time.Duration

	OTPTTL            time.Duration
	OTPResendCooldown time.Duration

	JWTSecret string // empty outside production gets a random per-process secret
	JWTExpiry time.Duration

	AllowedOrigins []string // CORS allowed origins
	TrustProxy     bool     // take the client IP from X-Forwarded-For / X-Real-IP
	RateLimitRPS   float64
	RateLimitBurst int
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users        string
	TrainingLogs string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppHost:   getEnv("APP_HOST", "0.0.0.0"),
		AppPort:   getEnv("APP_PORT", getEnv("PORT", "5000")),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreDynamo)),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:        getEnv("DYNAMO_TABLE_USERS", "users"),
			TrainingLogs: getEnv("DYNAMO_TABLE_TRAINING_LOGS", "training_logs"),
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MailDriver:   strings.ToLower(getEnv("MAIL_DRIVER", MailSMTP)),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@runease.app"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "RunEase"),
		SMTPInsecure: getEnvBool("SMTP_INSECURE", false),
		SMTPTimeout:  getEnvDuration("SMTP_TIMEOUT", 10*time.Second),

		OTPTTL:            getEnvDuration("OTP_TTL", 5*time.Minute),
		OTPResendCooldown: getEnvDuration("OTP_RESEND_COOLDOWN", 30*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
	}
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Validate checks the settings the service cannot run without. Credentials are
// only required in production so local stacks (LocalStack, MailHog) work with defaults.
func (c *Config) Validate() error {
	var errs []error
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL must be positive"))
	}
	if c.OTPResendCooldown < 0 {
		errs = append(errs, errors.New("OTP_RESEND_COOLDOWN must not be negative"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < minJWTSecret {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecret))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}

	switch c.StoreDriver {
	case StoreDynamo:
		if c.IsProduction() && c.AWSEndpointURL == "" && c.AWSAccessKeyID == "" {
			errs = append(errs, errors.New("AWS_ACCESS_KEY_ID is required in production"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, errors.New("STORE_DRIVER must be one of: dynamo, postgres"))
	}

	switch c.MailDriver {
	case MailSMTP:
		if c.IsProduction() && (c.SMTPUsername == "" || c.SMTPPassword == "") {
			errs = append(errs, errors.New("SMTP_USERNAME and SMTP_PASSWORD are required in production"))
		}
	case MailLog:
		if c.IsProduction() {
			errs = append(errs, errors.New("MAIL_DRIVER=log is not allowed in production"))
		}
	default:
		errs = append(errs, errors.New("MAIL_DRIVER must be one of: smtp, log"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.AppPort
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

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
