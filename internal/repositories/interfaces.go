package repositories

import (
	"context"

	"billbook-api/internal/models"
)

// DocumentRepository persists finalized documents
type DocumentRepository interface {
	// Create stores a document with its rows and a snapshot of its totals
	Create(ctx context.Context, doc *models.Document) error

	// GetByID loads a document. When the stored totals no longer match the
	// rows, the document is returned together with an ErrStaleTotals error.
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// Delete deletes a document and its rows
	Delete(ctx context.Context, id string) error

	// List returns document headers matching the filters
	List(ctx context.Context, filters *models.DocumentFilters) ([]*models.DocumentListItem, error)

	// Count returns the number of documents matching the filters
	Count(ctx context.Context, filters *models.DocumentFilters) (int64, error)

	// Exists checks if a document with the given ID exists
	Exists(ctx context.Context, id string) (bool, error)
}

// RepositoryManager provides access to all repositories and transaction management
type RepositoryManager interface {
	TransactionManager

	// Documents returns the document repository
	Documents() DocumentRepository

	// Close closes all repository connections
	Close() error

	// Health checks the health of the repository connections
	Health(ctx context.Context) error
}
