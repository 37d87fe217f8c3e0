package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is an account role. Roles are ordered: user < advertiser < publisher < admin.
type Role string

// Role constants
const (
	RoleUser       Role = "user"
	RoleAdvertiser Role = "advertiser"
	RolePublisher  Role = "publisher"
	RoleAdmin      Role = "admin"
)

// Roles lists every role from lowest to highest.
var Roles = []Role{RoleUser, RoleAdvertiser, RolePublisher, RoleAdmin}

// Rank returns the position of the role in the hierarchy, or -1 for an unknown role.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 0
	case RoleAdvertiser:
		return 1
	case RolePublisher:
		return 2
	case RoleAdmin:
		return 3
	}
	return -1
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// AtLeast reports whether r is the same as or above min in the hierarchy.
// Unknown roles never satisfy any minimum.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

// User represents an account holder.
type User struct {
	ID               uuid.UUID  `json:"id"`
	FullName         string     `json:"full_name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Role             Role       `json:"role"`
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsAdmin returns true if the user is an admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasRole returns true if the user's role is at least min.
func (u *User) HasRole(min Role) bool {
	return u.Role.AtLeast(min)
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role   Role
	Search string
	Offset int
	Limit  int
}
