package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// devJwtSecret is only ever used outside production when JWT_SECRET is unset.
const devJwtSecret = "farmmitra-dev-secret-change-me"

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env
	AppEnv  string

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	Port           string
	ServiceApiPort string
	FrontendOrigin string

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string
	LogEmailsPath   string
	MockServices    bool

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	ImageMaxDimension  int
	ImageMaxSizeMB     int

	// App Defaults
	AppName       string
	StatsCacheTTL time.Duration

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.AppEnv = getEnv("APP_ENV", "development")
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "farmmitra")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.Port = getEnv("PORT", "3000")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "")
	cfg.FrontendOrigin = getEnv("FRONTEND_ORIGIN", "http://localhost:5173")
	cfg.LogEmailsPath = getEnv("LOG_EMAILS", "")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@farmmitra.example.com")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "ap-south-1")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.AppName = getEnv("APP_NAME", "FarmMitra")

	cfg.JwtSecret = getEnv("JWT_SECRET", "")
	if cfg.JwtSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("missing required environment variable: JWT_SECRET (APP_ENV=production)")
		}
		log.Printf("WARNING: JWT_SECRET not set, using the development secret. Never run like this in production.")
		cfg.JwtSecret = devJwtSecret
	}

	cfg.MockServices, err = strconv.ParseBool(getEnv("MOCK_SERVICES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid MOCK_SERVICES: %w", err)
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "86400"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	statsTTLSeconds, err := strconv.ParseInt(getEnv("STATS_CACHE_TTL_SECONDS", "60"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_CACHE_TTL_SECONDS: %w", err)
	}
	cfg.StatsCacheTTL = time.Duration(statsTTLSeconds) * time.Second

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "1600"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	cfg.ImageMaxSizeMB, err = strconv.Atoi(getEnv("IMAGE_MAX_SIZE_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_SIZE_MB: %w", err)
	}

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
