package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"intuitive/internal/domain/entity"
	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/domain/repository"
	"intuitive/internal/errors"
	"intuitive/internal/infra/persistence/model"
)

// roleRepository implements the repository.RoleRepository interface using GORM.
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository is the constructor for roleRepository.
func NewRoleRepository(db *gorm.DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

// FindByUserID returns the user's roles. Reads go to the primary so a role
// granted a moment ago is never missed on a lagging replica.
func (repo *roleRepository) FindByUserID(ctx context.Context, userID string) (entity.Roles, error) {
	var rows []model.RoleModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find roles")
	}

	roles := make(entity.Roles, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.Role)
	}

	return roles, nil
}

// Create grants a role; an existing (user, role) pair is left untouched.
func (repo *roleRepository) Create(ctx context.Context, userID string, role entity.Role) error {
	roleM := &model.RoleModel{
		ID:     uuid.New(),
		UserID: userID,
		Role:   role,
	}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
			DoNothing: true,
		}).
		Create(roleM).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return errors.Wrap(repository.ErrUserNotFound, "grant role")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create role")
	}

	return nil
}
