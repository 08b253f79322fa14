package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"billbook-api/internal/adapters/drafts"
	"billbook-api/internal/adapters/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	// AllowedOrigins restricts CORS. Empty allows every origin.
	AllowedOrigins []string
	Database       DatabaseConfig
	Storage        StorageConfig
	Drafts         DraftsConfig
	JWT            JWTConfig
	RateLimit      RateLimitConfig
	Billing        BillingConfig
}

// StorageConfig holds file storage configuration for hand-off snapshots
type StorageConfig struct {
	Type        string // "local", "s3" or "mock"
	LocalPath   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
}

// DraftsConfig holds configuration for the draft store
type DraftsConfig struct {
	Type          string // "memory" or "redis"
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Enabled     bool
	Secret      string
	ExpiryHours int
	Username    string
	Password    string
}

// RateLimitConfig holds request rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// Load loads configuration from environment variables and a .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_PATH", "./data/billbook.db")
	v.SetDefault("DB_MIGRATIONS_PATH", "./migrations")
	v.SetDefault("DB_MAX_OPEN_CONNS", 1)
	v.SetDefault("DB_MAX_IDLE_CONNS", 1)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("STORAGE_TYPE", "local")
	v.SetDefault("STORAGE_LOCAL_PATH", "./data/files")
	v.SetDefault("DRAFT_STORE", "memory")
	v.SetDefault("DRAFT_TTL", "24h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "draft:")
	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	billing, err := LoadBillingConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		Environment:    v.GetString("ENVIRONMENT"),
		Port:           v.GetString("PORT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		Database: DatabaseConfig{
			Path:            v.GetString("DB_PATH"),
			MigrationsPath:  v.GetString("DB_MIGRATIONS_PATH"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Storage: StorageConfig{
			Type:        v.GetString("STORAGE_TYPE"),
			LocalPath:   v.GetString("STORAGE_LOCAL_PATH"),
			S3Bucket:    v.GetString("S3_BUCKET"),
			S3Region:    v.GetString("S3_REGION"),
			S3Endpoint:  v.GetString("S3_ENDPOINT"),
			S3Prefix:    v.GetString("S3_PREFIX"),
			S3AccessKey: v.GetString("S3_ACCESS_KEY"),
			S3SecretKey: v.GetString("S3_SECRET_KEY"),
		},
		Drafts: DraftsConfig{
			Type:          v.GetString("DRAFT_STORE"),
			TTL:           v.GetDuration("DRAFT_TTL"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			KeyPrefix:     v.GetString("REDIS_KEY_PREFIX"),
		},
		JWT: JWTConfig{
			Enabled:     v.GetBool("AUTH_ENABLED"),
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
			Username:    v.GetString("AUTH_USERNAME"),
			Password:    v.GetString("AUTH_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
		Billing: *billing,
	}

	return config, nil
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.JWT.Enabled && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required when auth is enabled")
	}
	if strings.EqualFold(c.Storage.Type, string(storage.StorageTypeS3)) && c.Storage.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required for s3 storage")
	}
	if strings.EqualFold(c.Drafts.Type, string(drafts.StoreTypeRedis)) && c.Drafts.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis draft store")
	}
	return c.Billing.Validate()
}

// IsProduction reports whether the application runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ToStorageConfig converts StorageConfig to the storage adapter configuration
func (c *StorageConfig) ToStorageConfig() *storage.StorageConfig {
	return &storage.StorageConfig{
		Type:     c.Type,
		BasePath: c.LocalPath,
		Bucket:   c.S3Bucket,
		Region:   c.S3Region,
		Options: map[string]string{
			"endpoint":   c.S3Endpoint,
			"prefix":     c.S3Prefix,
			"access_key": c.S3AccessKey,
			"secret_key": c.S3SecretKey,
		},
	}
}

// ToDraftsConfig converts DraftsConfig to the draft store configuration
func (c *DraftsConfig) ToDraftsConfig() drafts.Config {
	return drafts.Config{
		Type:          c.Type,
		TTL:           c.TTL,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		KeyPrefix:     c.KeyPrefix,
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt gets an environment variable as integer with a fallback value
func GetEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// GetEnvAsBool gets an environment variable as boolean with a fallback value
func GetEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
