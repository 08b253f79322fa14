package repositories

import (
	"context"
)

// Transaction represents a database transaction shared by repositories through its context
type Transaction interface {
	Commit() error
	Rollback() error

	// Context returns a context that routes repository calls through this transaction
	Context() context.Context
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// BeginTransaction starts a new transaction
	BeginTransaction(ctx context.Context) (Transaction, error)

	// WithTransaction executes fn within a transaction, committing on success
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
