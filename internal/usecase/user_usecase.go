// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"intuitive/internal/domain/entity"
)

// --- Input DTOs ---

// CreateUserInput defines the data required to create the record for an
// authenticated subject.
type CreateUserInput struct {
	SubjectID string
	Name      string `validate:"required,max=128"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=6,max=72"`
}

// UserUsecase defines the interface for user-related business operations.
// It is also the store the authorization guards read roles and users from.
type UserUsecase interface {
	// CreateUser inserts the user and its default RoleUser grant atomically.
	CreateUser(ctx context.Context, input *CreateUserInput) (*entity.User, error)
	// GetUser returns ErrUserNotFound for unknown subjects.
	GetUser(ctx context.Context, subjectID string) (*entity.User, error)
	// GetRoles returns every role the subject holds.
	GetRoles(ctx context.Context, subjectID string) (entity.Roles, error)
	UpdateUserName(ctx context.Context, subjectID, name string) (*entity.User, error)
	ChangePassword(ctx context.Context, subjectID, password string) error
	GrantRole(ctx context.Context, subjectID string, role entity.Role) (*entity.User, error)
	DeleteUser(ctx context.Context, subjectID string) error
}
