package auth

import (
	"strings"

	"github.com/google/uuid"
)

// Principal is the caller identity derived from a verified token.
// It is built per request and never persisted. The zero value is the
// anonymous principal.
type Principal struct {
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
}

// Anonymous is the principal used when no valid token was presented
var Anonymous = Principal{}

// PrincipalFromClaims maps verified claims to a principal. A subject that
// is not a valid id yields the anonymous principal.
func PrincipalFromClaims(claims AuthClaims) Principal {
	if claims == nil {
		return Anonymous
	}

	id, err := uuid.Parse(strings.TrimSpace(claims.UserID()))
	if err != nil || id == uuid.Nil {
		return Anonymous
	}

	return Principal{
		UserID:      id,
		Role:        ResolveRoleName(claims.Role()),
		Email:       claims.Email(),
		DisplayName: claims.DisplayName(),
	}
}

// IsAuthenticated reports whether the principal carries a user id
func (p Principal) IsAuthenticated() bool {
	return p.UserID != uuid.Nil
}

// IsAdmin reports whether the principal has the admin role
func (p Principal) IsAdmin() bool {
	return p.IsAuthenticated() && IsAdmin(p.Role)
}

// OwnerID returns a pointer to the user id, nil for anonymous callers
func (p Principal) OwnerID() *uuid.UUID {
	if !p.IsAuthenticated() {
		return nil
	}
	id := p.UserID
	return &id
}

// Require returns ErrUnauthenticated for anonymous principals
func (p Principal) Require() error {
	if !p.IsAuthenticated() {
		return ErrUnauthenticated.Clone()
	}
	return nil
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
