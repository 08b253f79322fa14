package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"billbook-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// SQLiteRepositoryManager implements the RepositoryManager interface for SQLite
type SQLiteRepositoryManager struct {
	*SQLiteTransactionManager

	db           *sql.DB
	logger       *logrus.Logger
	documentRepo *DocumentRepository
}

// NewSQLiteRepositoryManager creates a repository manager over an open database
func NewSQLiteRepositoryManager(db *sql.DB, logger *logrus.Logger) *SQLiteRepositoryManager {
	if logger == nil {
		logger = logrus.New()
	}

	txm := NewSQLiteTransactionManager(db, logger)

	return &SQLiteRepositoryManager{
		SQLiteTransactionManager: txm,
		db:                       db,
		logger:                   logger,
		documentRepo:             NewDocumentRepository(db, txm, logger),
	}
}

// Documents returns the document repository
func (m *SQLiteRepositoryManager) Documents() repositories.DocumentRepository {
	return m.documentRepo
}

// Health pings the database
func (m *SQLiteRepositoryManager) Health(ctx context.Context) error {
	if m.db == nil {
		return repositories.ConnectionError(fmt.Errorf("database not initialized"))
	}
	if err := m.db.PingContext(ctx); err != nil {
		return repositories.ConnectionError(err)
	}
	return nil
}

// Close is a no-op; the connection is owned by the database.ConnectionManager
func (m *SQLiteRepositoryManager) Close() error {
	return nil
}

var _ repositories.RepositoryManager = (*SQLiteRepositoryManager)(nil)
