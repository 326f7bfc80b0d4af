package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes carried into a token
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
	Role() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningKeyID() string
	GetRetiredSigningKeys() map[string]string
	GetTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetBcryptCost() int
}

// CredentialStore is the storage port used by the identity core.
// Implementations translate uniqueness violations into ErrConflict.
type CredentialStore interface {
	FindUserByEmail(ctx context.Context, normalizedEmail string) (*User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	EmailExists(ctx context.Context, normalizedEmail string, excludingID *uuid.UUID) (bool, error)
	InsertUser(ctx context.Context, user *User) (*User, error)
	UpdateUser(ctx context.Context, user *User) (*User, error)
	ResolveRoleName(ctx context.Context, roleID *int64) (string, error)
	RoleIDByName(ctx context.Context, name string) (*int64, error)
}

// PasswordHasher hashes and verifies secrets
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) PasswordVerification
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
