package model

import (
	"time"

	"github.com/google/uuid"

	"intuitive/internal/domain/entity"
)

// RoleModel mirrors the 'roles' table. Role is stored as the user_role enum
// label ("User", "Manager", "Admin").
type RoleModel struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"`
	UserID    string      `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_roles_user_role,priority:1"`
	Role      entity.Role `gorm:"type:user_role;not null;uniqueIndex:idx_roles_user_role,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (RoleModel) TableName() string {
	return "roles"
}
