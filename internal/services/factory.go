package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"billbook-api/internal/adapters/drafts"
	"billbook-api/internal/adapters/storage"
	"billbook-api/internal/config"
	"billbook-api/internal/models"
	"billbook-api/internal/repositories"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	CalculatorService CalculatorService
	DocumentService   DocumentService
}

// ServiceConfig holds configuration and adapters for services
type ServiceConfig struct {
	Billing *config.BillingConfig
	Drafts  drafts.DraftStore
	Files   storage.FileStorage
	Logger  *logrus.Logger
}

// NewServiceContainer creates a new service container with all services
func NewServiceContainer(repos repositories.RepositoryManager, cfg *ServiceConfig) (*ServiceContainer, error) {
	if repos == nil {
		return nil, fmt.Errorf("repository manager cannot be nil")
	}

	if cfg == nil {
		cfg = &ServiceConfig{}
	}
	if cfg.Billing == nil {
		cfg.Billing = config.DefaultBillingConfig()
	}
	if cfg.Drafts == nil {
		cfg.Drafts = drafts.NewMemoryStore(models.DefaultDraftTTL)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	calculatorService, err := NewCalculatorService(cfg.Billing, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create calculator service: %w", err)
	}

	documentService := NewDocumentService(cfg.Drafts, repos, cfg.Files, cfg.Billing, cfg.Logger)

	return &ServiceContainer{
		CalculatorService: calculatorService,
		DocumentService:   documentService,
	}, nil
}

// Validate validates that all services are properly initialized
func (sc *ServiceContainer) Validate() error {
	if sc.CalculatorService == nil {
		return fmt.Errorf("calculator service is nil")
	}
	if sc.DocumentService == nil {
		return fmt.Errorf("document service is nil")
	}
	return nil
}
