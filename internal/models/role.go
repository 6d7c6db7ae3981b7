package models

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Capability names a privileged action.
type Capability string

const (
	CapManageContent   Capability = "manage_content"
	CapManageReference Capability = "manage_reference"
	CapManageUsers     Capability = "manage_users"
	CapModerate        Capability = "moderate"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {CapManageContent, CapManageReference, CapManageUsers, CapModerate},
	RoleUser:  {},
}

// ParseRole maps a role or TypeUser name onto the enum. Unknown names get the
// least privileged role.
func ParseRole(name string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(name))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Identity is the caller as resolved by the identity provider.
type Identity struct {
	UserUUID uuid.UUID
	Role     Role
}

// Can reports whether the identity's role grants the capability.
func (i Identity) Can(c Capability) bool {
	return i.Role.Can(c)
}
