// Package entity contains the core business objects of the project.
package entity

import (
	"database/sql/driver"
	"fmt"
	"slices"
)

// Role represents the authorization level granted to a user.
// The zero value is RoleUser.
type Role int

const (
	// RoleUser is the default role every account receives on creation.
	RoleUser Role = iota
	// RoleManager may read other users.
	RoleManager
	// RoleAdmin may grant roles and delete users.
	RoleAdmin
)

var roleNames = [...]string{
	RoleUser:    "User",
	RoleManager: "Manager",
	RoleAdmin:   "Admin",
}

// String returns the canonical name of the role ("User", "Manager", "Admin").
// Out-of-range values print as "User".
func (r Role) String() string {
	if !r.IsValid() {
		return roleNames[RoleUser]
	}

	return roleNames[r]
}

// Int returns the integer encoding of the role.
func (r Role) Int() int {
	if !r.IsValid() {
		return int(RoleUser)
	}

	return int(r)
}

// IsValid checks if the Role is a known value.
func (r Role) IsValid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

// ParseRole decodes a canonical role name. Unknown names decode to RoleUser.
func ParseRole(s string) Role {
	for i, name := range roleNames {
		if name == s {
			return Role(i)
		}
	}

	return RoleUser
}

// LookupRole decodes a canonical role name, reporting whether it was known.
func LookupRole(s string) (Role, bool) {
	for i, name := range roleNames {
		if name == s {
			return Role(i), true
		}
	}

	return RoleUser, false
}

// RoleFromInt decodes an integer role. Unknown values decode to RoleUser.
func RoleFromInt(i int) Role {
	r := Role(i)
	if !r.IsValid() {
		return RoleUser
	}

	return r
}

// Value stores the role as its canonical name.
func (r Role) Value() (driver.Value, error) {
	return r.String(), nil
}

// Scan reads a role stored as its canonical name.
func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*r = ParseRole(v)
	case []byte:
		*r = ParseRole(string(v))
	case int64:
		*r = RoleFromInt(int(v))
	case nil:
		*r = RoleUser
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}

	return nil
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
// Matching is exact: RoleAdmin does not imply RoleManager.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// ToStrings converts Roles to their canonical names.
func (rs Roles) ToStrings() []string {
	result := make([]string, len(rs))
	for i, r := range rs {
		result[i] = r.String()
	}

	return result
}
