package auth

import (
	"context"

	"github.com/goliatone/go-storefront-auth/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// PrincipalMapper converts middleware claims into the Principal stored in
// router locals. Nil or foreign claims map to Anonymous.
func PrincipalMapper(claims jwtware.AuthClaims) any {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return Anonymous
	}
	return PrincipalFromClaims(authClaims)
}

// ContextEnricherAdapter stores the Principal, and the claims when present,
// in the standard context
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return WithPrincipal(c, Anonymous)
	}
	return WithPrincipal(WithClaimsContext(c, authClaims), PrincipalFromClaims(authClaims))
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
