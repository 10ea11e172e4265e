package domain

import (
	"strings"
	"time"
)

// Role is the access-control role carried by every user and access token.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCaseManager Role = "case_manager"
	RoleReviewer    Role = "reviewer"
	RoleViewer      Role = "viewer"
)

// Roles lists every valid role in a stable order.
var Roles = []Role{RoleAdmin, RoleCaseManager, RoleReviewer, RoleViewer}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCaseManager, RoleReviewer, RoleViewer:
		return true
	}
	return false
}

// ParseRole converts a wire string into a Role. Unknown values are rejected.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(s))
	return r, r.Valid()
}

// User models an authenticated actor in the system.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal is the identity resolved from a verified access token.
type Principal struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
