package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultContextKey is the router locals key holding the Principal
const DefaultContextKey = "principal"

var principalCtxKey = &contextKey{"principal"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithPrincipal sets the Principal in the given context
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFromContext returns the Principal stored in ctx, Anonymous when
// none was stored
func PrincipalFromContext(ctx context.Context) Principal {
	if ctx == nil {
		return Anonymous
	}
	if p, ok := ctx.Value(principalCtxKey).(Principal); ok {
		return p
	}
	return Anonymous
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterPrincipal reads the Principal from router locals, falling back
// to the request context
func GetRouterPrincipal(c router.Context, key string) Principal {
	if key == "" {
		key = DefaultContextKey
	}
	if p, ok := c.Locals(key).(Principal); ok {
		return p
	}
	return PrincipalFromContext(c.Context())
}
