// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"

	domainerrors "intuitive/internal/domain/errors"
)

// User is an account known to the store. ID is the subject issued by the
// identity provider, so it is kept as an opaque string.
type User struct {
	ID           string    // Subject identifier issued by the identity provider.
	Name         string    // Display name.
	Email        string    // Primary contact email.
	PasswordHash string    // bcrypt hash; never leaves the service layer.
	CreatedAt    time.Time // Timestamp of when this user account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this user's data.
}

// Clone returns a shallow copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u

	return &c
}

// ParseSubjectUUID converts a provider subject into a UUID.
// Subjects that are not UUIDs yield ErrInvalidSubjectFormat.
func ParseSubjectUUID(subject string) (uuid.UUID, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, domainerrors.ErrInvalidSubjectFormat.WithDetails(err.Error())
	}

	return id, nil
}
