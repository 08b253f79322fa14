package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"billbook-api/internal/adapters/drafts"
	"billbook-api/internal/adapters/storage"
	"billbook-api/internal/config"
	"billbook-api/internal/database"
	"billbook-api/internal/middleware"
	"billbook-api/internal/repositories"
	"billbook-api/internal/repositories/sqlite"
	"billbook-api/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *logrus.Logger
	CalculatorService services.CalculatorService
	DocumentService   services.DocumentService
	AuthService       *middleware.AuthService

	// Internal dependencies
	connection   *database.ConnectionManager
	repositories repositories.RepositoryManager
	drafts       drafts.DraftStore
	files        storage.FileStorage
}

// NewLogger builds the application logger for the configured level
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := NewLogger(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := &Container{Config: cfg, Logger: logger}

	c.connection = database.NewConnectionManager(cfg.Database.ToConnectionConfig(logger))
	if err := c.connection.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.repositories = sqlite.NewSQLiteRepositoryManager(c.connection.GetDB(), logger)

	draftStore, err := drafts.New(ctx, cfg.Drafts.ToDraftsConfig())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create draft store: %w", err)
	}
	c.drafts = draftStore

	if cfg.Storage.Type != "" && !strings.EqualFold(cfg.Storage.Type, "none") {
		files, err := storage.CreateFromConfig(ctx, cfg.Storage.ToStorageConfig())
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create file storage: %w", err)
		}
		c.files = files
	}

	serviceContainer, err := services.NewServiceContainer(c.repositories, &services.ServiceConfig{
		Billing: &cfg.Billing,
		Drafts:  c.drafts,
		Files:   c.files,
		Logger:  logger,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create service container: %w", err)
	}
	c.CalculatorService = serviceContainer.CalculatorService
	c.DocumentService = serviceContainer.DocumentService

	if cfg.JWT.Enabled {
		c.AuthService = middleware.NewAuthService(&middleware.AuthConfig{
			JWTSecret:     cfg.JWT.Secret,
			TokenDuration: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		})
	}

	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"draft_store": cfg.Drafts.Type,
		"storage":     cfg.Storage.Type,
		"auth":        cfg.JWT.Enabled,
	}).Info("Container initialized")

	return c, nil
}

// Health checks the database
func (c *Container) Health(ctx context.Context) error {
	if c.repositories == nil {
		return fmt.Errorf("repositories not initialized")
	}
	return c.repositories.Health(ctx)
}

// Close cleans up all resources
func (c *Container) Close() error {
	var errs []string

	if c.drafts != nil {
		if err := c.drafts.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("draft store: %v", err))
		}
	}

	if c.files != nil {
		if err := c.files.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("file storage: %v", err))
		}
	}

	if c.connection != nil {
		if err := c.connection.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("database: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to close container: %s", strings.Join(errs, "; "))
	}
	return nil
}
