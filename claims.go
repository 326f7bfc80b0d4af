package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the structured claims carried by an access token
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Email() string
	DisplayName() string
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. The custom
// claims are plain strings and always present, empty when unknown.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserRole  string `json:"role"`
	UserEmail string `json:"email"`
	UserName  string `json:"name"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	return c.Subject()
}

// Role returns the role name, RoleUser when the claim is empty
func (c *JWTClaims) Role() string {
	return ResolveRoleName(c.UserRole)
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// DisplayName returns the display name claim
func (c *JWTClaims) DisplayName() string {
	return c.UserName
}

// HasRole compares role names ignoring case
func (c *JWTClaims) HasRole(role string) bool {
	return equalFoldTrim(c.Role(), role)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
