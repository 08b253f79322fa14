package config

import (
	"context"
	"os"
	"sync"
)

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsLambda     bool
	FunctionName string
	Region       string
	Stage        string
}

var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = &ServerlessConfig{
			IsLambda:     isRunningInLambda(),
			FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
			Region:       os.Getenv("AWS_REGION"),
			Stage:        GetEnv("STAGE", "dev"),
		}
	})
	return serverlessConfig
}

func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless modifies configuration for serverless deployment
func AdaptConfigForServerless(ctx context.Context, config *Config) *Config {
	if !IsServerlessMode() {
		return config
	}
	return adaptForLambda(config)
}

// adaptForLambda moves every piece of state off the function's local disk:
// sqlite onto EFS, hand-off files onto S3 and drafts into Redis.
func adaptForLambda(config *Config) *Config {
	if config.Database.Path == DefaultDatabaseConfig().Path {
		config.Database.Path = GetEnv("EFS_DB_PATH", "/mnt/efs/billbook.db")
	}

	if config.Storage.Type == "local" {
		config.Storage.Type = "s3"
		if config.Storage.S3Bucket == "" {
			config.Storage.S3Bucket = GetEnv("S3_BUCKET", "billbook-handoff")
		}
		if config.Storage.S3Region == "" {
			config.Storage.S3Region = GetEnv("AWS_REGION", "ap-south-1")
		}
	}

	if config.Drafts.Type == "memory" && os.Getenv("REDIS_ADDR") != "" {
		config.Drafts.Type = "redis"
	}

	return config
}

// GetOptimizedConfig returns configuration optimized for the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	return AdaptConfigForServerless(context.Background(), config), nil
}
