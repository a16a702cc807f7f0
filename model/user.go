// file: model/user.go

package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named bundle of permissions assigned to a user. A user can hold
// several roles at once.
type Role string

const (
	RoleReader    Role = "reader"
	RoleUploader  Role = "uploader"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether the given role is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleReader, RoleUploader, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is a registered platform user. The auth core reads the roles and the
// active flag; profile CRUD lives elsewhere.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // never exposed in responses
	DisplayName   string     `json:"display_name,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	IsActive      bool       `json:"is_active"`
	Roles         []Role     `json:"roles"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
