package repository

import "context"

// TransactionManager defines the interface for managing storage transactions.
// This allows the use case layer to handle transactions without depending on a specific driver like GORM.
type TransactionManager interface {
	// Execute runs a function within a transaction.
	// If the function returns an error or panics, every write made through the
	// factory is discarded. Otherwise, it's committed.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances that are bound to a specific transaction.
type RepositoryFactory interface {
	// UserRepo returns a UserRepository bound to the current transaction.
	UserRepo() UserRepository

	// RoleRepo returns a RoleRepository bound to the current transaction.
	RoleRepo() RoleRepository
}
