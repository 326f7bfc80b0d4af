package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-storefront-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims_Accessors(t *testing.T) {
	id := uuid.NewString()
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: id},
		UserRole:         "Admin",
		UserEmail:        "ajdin@example.com",
		UserName:         "Ajdin Zahirović",
	}

	assert.Equal(t, id, claims.Subject())
	assert.Equal(t, id, claims.UserID())
	assert.Equal(t, "Admin", claims.Role())
	assert.Equal(t, "ajdin@example.com", claims.Email())
	assert.Equal(t, "Ajdin Zahirović", claims.DisplayName())
}

func TestJWTClaims_RoleDefaultsToUser(t *testing.T) {
	claims := &auth.JWTClaims{}
	assert.Equal(t, auth.RoleUser, claims.Role())
	assert.True(t, claims.HasRole("user"))
}

func TestJWTClaims_HasRole(t *testing.T) {
	tests := []struct {
		name  string
		role  string
		check string
		want  bool
	}{
		{"exact", "Admin", "Admin", true},
		{"case insensitive", "Admin", "admin", true},
		{"padded", "Admin", " Admin ", true},
		{"different", "User", "Admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &auth.JWTClaims{UserRole: tt.role}
			assert.Equal(t, tt.want, claims.HasRole(tt.check))
		})
	}
}

func TestJWTClaims_Times(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(auth.DefaultTokenTTL)),
		},
	}
	assert.True(t, claims.IssuedAt().Equal(now))
	assert.True(t, claims.Expires().Equal(now.Add(30*time.Minute)))

	empty := &auth.JWTClaims{}
	assert.True(t, empty.IssuedAt().IsZero())
	assert.True(t, empty.Expires().IsZero())
}

func TestPrincipalFromClaims(t *testing.T) {
	id := uuid.New()

	t.Run("valid subject", func(t *testing.T) {
		p := auth.PrincipalFromClaims(&auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()},
			UserEmail:        "a@example.com",
			UserName:         "Ada",
		})
		assert.True(t, p.IsAuthenticated())
		assert.Equal(t, id, p.UserID)
		assert.Equal(t, auth.RoleUser, p.Role)
		assert.Equal(t, "Ada", p.DisplayName)
		assert.False(t, p.IsAdmin())
		assert.Equal(t, id, *p.OwnerID())
	})

	t.Run("non uuid subject", func(t *testing.T) {
		p := auth.PrincipalFromClaims(&auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
		})
		assert.Equal(t, auth.Anonymous, p)
	})

	t.Run("nil claims", func(t *testing.T) {
		assert.Equal(t, auth.Anonymous, auth.PrincipalFromClaims(nil))
	})

	t.Run("admin", func(t *testing.T) {
		p := auth.PrincipalFromClaims(&auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()},
			UserRole:         "admin",
		})
		assert.True(t, p.IsAdmin())
	})
}

func TestAnonymousPrincipal(t *testing.T) {
	p := auth.Anonymous
	assert.False(t, p.IsAuthenticated())
	assert.False(t, p.IsAdmin())
	assert.Nil(t, p.OwnerID())

	err := p.Require()
	assert.True(t, auth.IsUnauthenticated(err))
}

func TestNewIdentityFromUser(t *testing.T) {
	user := &auth.User{ID: uuid.New(), FullName: "Ada Lovelace", Email: "ada@example.com"}

	identity := auth.NewIdentityFromUser(user, "")
	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, "ada@example.com", identity.Email())
	assert.Equal(t, "Ada Lovelace", identity.DisplayName())
	assert.Equal(t, auth.RoleUser, identity.Role())

	assert.Nil(t, auth.NewIdentityFromUser(nil, auth.RoleAdmin))
}
