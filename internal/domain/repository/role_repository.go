package repository

import (
	"context"

	"intuitive/internal/domain/entity"
)

// RoleRepository persists role grants. A user may hold several roles and
// grants are additive.
type RoleRepository interface {
	// FindByUserID returns every role granted to the user, ordered by grant time.
	// An unknown user yields an empty slice, not an error.
	FindByUserID(ctx context.Context, userID string) (entity.Roles, error)

	// Create grants a role. Granting a role the user already holds is a no-op.
	Create(ctx context.Context, userID string, role entity.Role) error
}
