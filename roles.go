package auth

import "strings"

const (
	// RoleAdmin may mutate any owned resource
	RoleAdmin = "Admin"
	// RoleUser is the default role for every account
	RoleUser = "User"
)

// ResolveRoleName falls back to RoleUser for absent role names
func ResolveRoleName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return RoleUser
	}
	return name
}

// IsAdmin compares the role name to RoleAdmin ignoring case
func IsAdmin(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}

// DefaultRoles are seeded on first migration
func DefaultRoles() []*Role {
	return []*Role{
		{ID: 1, Name: RoleAdmin},
		{ID: 2, Name: RoleUser},
	}
}
