// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Remote      RemoteConfig
	Checkout    CheckoutConfig
	Sync        SyncConfig
	Storage     StorageConfig
	AWS         AWSConfig
	I18n        I18nConfig
	Log         LogConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	RateLimit    float64 // requests per second per IP
	RateBurst    int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// JWTConfig verifies tokens minted by the auth collaborator; this service never issues them.
type JWTConfig struct {
	SecretKey string
}

// RemoteConfig points at the storefront backend that owns carts, coupons and addresses.
type RemoteConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // outbound requests per second
	RateBurst int
}

type CheckoutConfig struct {
	ShippingFee    float64
	Tax            float64
	DefaultCountry string
}

type SyncConfig struct {
	PushConcurrency int
	RepushRemote    bool
}

type StorageConfig struct {
	Driver     string // memory | postgres
	SealSecret string
	Retention  time.Duration
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
	PresignTTL      time.Duration
}

type I18nConfig struct {
	DefaultLocale string
}

type LogConfig struct {
	Level  string
	Format string // text | json
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimit:    getEnvAsFloat("SERVER_RATE_LIMIT", 20),
			RateBurst:    getEnvAsInt("SERVER_RATE_BURST", 40),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "storefront"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Remote: RemoteConfig{
			BaseURL:   strings.TrimSuffix(getEnv("REMOTE_BASE_URL", "http://localhost:9000/api"), "/"),
			Timeout:   getEnvAsDuration("REMOTE_TIMEOUT", 10*time.Second),
			RateLimit: getEnvAsFloat("REMOTE_RATE_LIMIT", 50),
			RateBurst: getEnvAsInt("REMOTE_RATE_BURST", 10),
		},
		Checkout: CheckoutConfig{
			ShippingFee:    getEnvAsFloat("CHECKOUT_SHIPPING_FEE", 2),
			Tax:            getEnvAsFloat("CHECKOUT_TAX", 0),
			DefaultCountry: getEnv("CHECKOUT_DEFAULT_COUNTRY", "JO"),
		},
		Sync: SyncConfig{
			PushConcurrency: getEnvAsInt("SYNC_PUSH_CONCURRENCY", 1),
			RepushRemote:    getEnvAsBool("SYNC_REPUSH_REMOTE", true),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "memory"),
			SealSecret: getEnv("STORAGE_SEAL_SECRET", "change-this-seal-secret"),
			Retention:  getEnvAsDuration("STORAGE_RETENTION", 30*24*time.Hour),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
			PresignTTL:      getEnvAsDuration("AWS_PRESIGN_TTL", 15*time.Minute),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Storage.SealSecret == "change-this-seal-secret" && c.Environment == "production" {
		return fmt.Errorf("storage seal secret must be changed in production")
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Database.Password == "" && c.Environment == "production" {
			return fmt.Errorf("database password is required in production")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote base URL is required")
	}

	if c.Checkout.ShippingFee < 0 || c.Checkout.Tax < 0 {
		return fmt.Errorf("checkout fees must not be negative")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
