// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"intuitive/internal/domain/entity"
	"intuitive/internal/errors"
)

// Domain-specific persistence outcomes. Implementations translate driver errors into these.
var (
	// ErrUserNotFound is returned when no user row matches the identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserConflict is returned when a user with the same identifier or email already exists.
	ErrUserConflict = errors.New("user already exists")
)

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	// FindByID retrieves a single user by subject identifier.
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// Create persists a new user.
	Create(ctx context.Context, user *entity.User) error

	// UpdateName changes the display name and bumps UpdatedAt.
	UpdateName(ctx context.Context, id, name string) (*entity.User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// Delete removes the user together with its role rows.
	Delete(ctx context.Context, id string) error
}
