package auth

import "time"

// Role is the fixed permission tier assigned to every account.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// Identity is the authenticated user record attached to a request after
// successful token verification. Org-unit fields are empty when the
// account is not scoped to that level of the hierarchy.
type Identity struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            Role       `json:"role"`
	DirektoratID    string     `json:"direktoratId,omitempty"`
	SubdirektoratID string     `json:"subdirektoratId,omitempty"`
	DivisiID        string     `json:"divisiId,omitempty"`
	IsActive        bool       `json:"isActive"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
