package model

import (
	"time"
)

// UserModel mirrors the 'users' table. The primary key is the identity
// provider subject, so it is text rather than a generated UUID.
type UserModel struct {
	ID        string `gorm:"type:text;primaryKey"`
	Name      string `gorm:"type:text;not null"`
	Email     string `gorm:"type:text;unique;not null"`
	Password  string `gorm:"column:password;type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Roles []RoleModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
