package auth

import "strings"

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed.Clone()
	}
	return f(tokenString)
}

// Verifier turns raw bearer tokens into principals. Failures never
// propagate: they are logged and yield the anonymous principal.
type Verifier struct {
	validator TokenValidator
	logger    Logger
}

// NewVerifier wraps validator
func NewVerifier(validator TokenValidator) *Verifier {
	return &Verifier{
		validator: validator,
		logger:    defLogger{},
	}
}

// WithLogger sets the logger
func (v *Verifier) WithLogger(logger Logger) *Verifier {
	v.logger = normalizeLogger(logger)
	return v
}

// Authenticate returns the principal for token, Anonymous on any failure
func (v *Verifier) Authenticate(token string) Principal {
	p, err := v.Verify(token)
	if err != nil {
		v.logger.Debug("bearer token rejected: %v", err)
		return Anonymous
	}
	return p
}

// Verify is Authenticate with the failure reason exposed
func (v *Verifier) Verify(token string) (Principal, error) {
	_, p, err := v.verify(token)
	return p, err
}

// Validate implements TokenValidator. Tokens whose subject is not a user id
// are rejected.
func (v *Verifier) Validate(token string) (AuthClaims, error) {
	claims, _, err := v.verify(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (v *Verifier) verify(token string) (AuthClaims, Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, Anonymous, ErrUnauthenticated.Clone()
	}

	if v.validator == nil {
		return nil, Anonymous, ErrTokenMalformed.Clone()
	}

	claims, err := v.validator.Validate(token)
	if err != nil {
		return nil, Anonymous, err
	}

	p := PrincipalFromClaims(claims)
	if !p.IsAuthenticated() {
		return nil, Anonymous, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"reason": "subject is not a user id",
		})
	}

	return claims, p, nil
}
