package config

import (
	"path/filepath"
	"testing"
	"time"

	"billbook-api/internal/calc"
	"billbook-api/internal/models"

	"github.com/sirupsen/logrus"
)

func TestLoad_Defaults(t *testing.T) {
	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Port != "8081" {
		t.Errorf("Expected default port 8081, got %s", config.Port)
	}
	if config.Database.ConnMaxLifetime != time.Hour {
		t.Errorf("Expected 1h conn lifetime, got %v", config.Database.ConnMaxLifetime)
	}
	if config.Drafts.Type != "memory" || config.Drafts.TTL != 24*time.Hour {
		t.Errorf("Unexpected draft defaults: %+v", config.Drafts)
	}
	if config.JWT.Enabled {
		t.Error("Auth should be disabled by default")
	}
	if config.Billing.PolicyFor(models.DocumentTypePurchaseBill) != calc.AmountAuthoritative {
		t.Error("Expected purchase bills to default to amount mode")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DRAFT_STORE", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("DRAFT_TTL", "30m")
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("S3_BUCKET", "handoff")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("POLICY_SALE", "amount")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", config.Port)
	}
	if config.Drafts.RedisAddr != "cache:6379" || config.Drafts.TTL != 30*time.Minute {
		t.Errorf("Unexpected draft config: %+v", config.Drafts)
	}
	if config.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("Expected 2.5 rps, got %v", config.RateLimit.RequestsPerSecond)
	}
	if config.Billing.PolicyFor(models.DocumentTypeSale) != calc.AmountAuthoritative {
		t.Error("Expected POLICY_SALE to override the sale policy")
	}

	sc := config.Storage.ToStorageConfig()
	if sc.Type != "s3" || sc.Bucket != "handoff" || sc.Options["endpoint"] != "http://minio:9000" {
		t.Errorf("Unexpected storage config: %+v", sc)
	}

	dc := config.Drafts.ToDraftsConfig()
	if dc.Type != "redis" || dc.RedisAddr != "cache:6379" {
		t.Errorf("Unexpected drafts config: %+v", dc)
	}
}

func TestLoad_InvalidPolicy(t *testing.T) {
	t.Setenv("POLICY_EXPENSE", "sometimes")

	if _, err := Load(); err == nil {
		t.Error("Expected invalid policy to fail loading")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"auth without secret", func(c *Config) { c.JWT.Enabled = true }, true},
		{"auth with secret", func(c *Config) { c.JWT.Enabled = true; c.JWT.Secret = "s" }, false},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }, true},
		{"redis without addr", func(c *Config) { c.Drafts.Type = "redis" }, true},
		{"unsupported country", func(c *Config) { c.Billing.CountryCode = "AU" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{
				Port:    "8081",
				Storage: StorageConfig{Type: "local"},
				Drafts:  DraftsConfig{Type: "memory"},
				Billing: *DefaultBillingConfig(),
			}
			tt.modify(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    calc.Policy
		wantErr bool
	}{
		{"percent", calc.PercentAuthoritative, false},
		{"AMOUNT", calc.AmountAuthoritative, false},
		{"percent, amount", calc.Policy{Discount: calc.ModePercent, Tax: calc.ModeAmount}, false},
		{"amount,percent", calc.Policy{Discount: calc.ModeAmount, Tax: calc.ModePercent}, false},
		{"percent,amount,percent", calc.Policy{}, true},
		{"fixed", calc.Policy{}, true},
		{"", calc.Policy{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBillingConfig_PolicyFor(t *testing.T) {
	config := DefaultBillingConfig()

	expected := map[models.DocumentType]calc.Policy{
		models.DocumentTypeSale:            calc.PercentAuthoritative,
		models.DocumentTypeEstimate:        calc.PercentAuthoritative,
		models.DocumentTypeDeliveryChallan: calc.PercentAuthoritative,
		models.DocumentTypePurchaseOrder:   calc.PercentAuthoritative,
		models.DocumentTypePurchaseBill:    calc.AmountAuthoritative,
		models.DocumentTypeExpense:         calc.AmountAuthoritative,
	}
	for docType, want := range expected {
		if got := config.PolicyFor(docType); got != want {
			t.Errorf("PolicyFor(%s) = %+v, want %+v", docType, got, want)
		}
	}

	if got := config.PolicyFor("unknown"); got != calc.PercentAuthoritative {
		t.Errorf("Unknown types should fall back to percent, got %+v", got)
	}

	// Defaults must not be shared between configs
	config.Policies[models.DocumentTypeSale] = calc.AmountAuthoritative
	if DefaultBillingConfig().PolicyFor(models.DocumentTypeSale) != calc.PercentAuthoritative {
		t.Error("Mutating one config changed the defaults")
	}
}

func TestDatabaseConfig_Validate(t *testing.T) {
	migrations := t.TempDir()

	tests := []struct {
		name    string
		modify  func(*DatabaseConfig)
		wantErr bool
	}{
		{"valid", func(c *DatabaseConfig) {}, false},
		{"empty path", func(c *DatabaseConfig) { c.Path = "" }, true},
		{"no connections", func(c *DatabaseConfig) { c.MaxOpenConns = 0 }, true},
		{"short lifetime", func(c *DatabaseConfig) { c.ConnMaxLifetime = time.Second }, true},
		{"missing migrations", func(c *DatabaseConfig) { c.MigrationsPath = filepath.Join(migrations, "nope") }, true},
		{"missing migrations without auto migrate", func(c *DatabaseConfig) {
			c.MigrationsPath = filepath.Join(migrations, "nope")
			c.AutoMigrate = false
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultDatabaseConfig()
			config.MigrationsPath = migrations
			tt.modify(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_ToConnectionConfig(t *testing.T) {
	config := DefaultDatabaseConfig()
	logger := logrus.New()

	cc := config.ToConnectionConfig(logger)
	if cc.DatabasePath != config.Path || cc.MigrationsPath != config.MigrationsPath || !cc.AutoMigrate {
		t.Errorf("Unexpected connection config: %+v", cc)
	}
	if cc.Logger != logger {
		t.Error("Expected logger to be passed through")
	}
}

func TestAdaptForLambda(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("EFS_DB_PATH", "")

	config := &Config{
		Database: *DefaultDatabaseConfig(),
		Storage:  StorageConfig{Type: "local"},
		Drafts:   DraftsConfig{Type: "memory"},
	}

	adapted := adaptForLambda(config)
	if adapted.Database.Path != "/mnt/efs/billbook.db" {
		t.Errorf("Expected EFS database path, got %s", adapted.Database.Path)
	}
	if adapted.Storage.Type != "s3" || adapted.Storage.S3Bucket != "billbook-handoff" {
		t.Errorf("Expected s3 storage, got %+v", adapted.Storage)
	}
	if adapted.Drafts.Type != "redis" {
		t.Errorf("Expected redis drafts, got %s", adapted.Drafts.Type)
	}
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example" || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}
