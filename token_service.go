package auth

import (
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// DefaultTokenTTL is the lifetime of an access token
	DefaultTokenTTL = 30 * time.Minute
	// DefaultSigningKeyID is used as the kid header when none is configured
	DefaultSigningKeyID = "primary"
	// DefaultTokenIssuer is the iss claim when none is configured
	DefaultTokenIssuer = "storefront-api"
	// DefaultTokenAudience is the aud claim when none is configured
	DefaultTokenAudience = "storefront-client"

	signingAlgorithm = "HS256"
)

// TokenService issues and validates access tokens
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey  []byte
	keyID       string
	retiredKeys map[string][]byte
	ttl         time.Duration
	issuer      string
	audience    jwt.ClaimStrings
	now         func() time.Time
	logger      Logger
	keys        *keyfunc.JWKS
}

// TokenOption customizes the token service
type TokenOption func(*TokenServiceImpl)

// WithTokenTTL overrides DefaultTokenTTL
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(ts *TokenServiceImpl) {
		if ttl > 0 {
			ts.ttl = ttl
		}
	}
}

// WithTokenIssuer overrides DefaultTokenIssuer. Blank values are ignored.
func WithTokenIssuer(issuer string) TokenOption {
	return func(ts *TokenServiceImpl) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			ts.issuer = issuer
		}
	}
}

// WithTokenAudience overrides DefaultTokenAudience. The first value is the
// one required on validation. Blank values are ignored.
func WithTokenAudience(audience ...string) TokenOption {
	return func(ts *TokenServiceImpl) {
		var out jwt.ClaimStrings
		for _, aud := range audience {
			if aud = strings.TrimSpace(aud); aud != "" {
				out = append(out, aud)
			}
		}
		if len(out) > 0 {
			ts.audience = out
		}
	}
}

// WithSigningKeyID sets the kid header of issued tokens
func WithSigningKeyID(kid string) TokenOption {
	return func(ts *TokenServiceImpl) {
		if kid = strings.TrimSpace(kid); kid != "" {
			ts.keyID = kid
		}
	}
}

// WithRetiredSigningKeys accepts tokens signed by previous keys, keyed by kid
func WithRetiredSigningKeys(keys map[string]string) TokenOption {
	return func(ts *TokenServiceImpl) {
		for kid, key := range keys {
			if kid == "" || key == "" {
				continue
			}
			ts.retiredKeys[kid] = []byte(key)
		}
	}
}

// WithTokenClock injects the clock used for issuing and validating
func WithTokenClock(now func() time.Time) TokenOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *TokenServiceImpl) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService creates a new TokenService instance. An empty signing key
// returns ErrMissingSigningKey.
func NewTokenService(signingKey []byte, opts ...TokenOption) (*TokenServiceImpl, error) {
	if len(strings.TrimSpace(string(signingKey))) == 0 {
		return nil, ErrMissingSigningKey.Clone()
	}

	ts := &TokenServiceImpl{
		signingKey:  signingKey,
		keyID:       DefaultSigningKeyID,
		retiredKeys: map[string][]byte{},
		ttl:         DefaultTokenTTL,
		issuer:      DefaultTokenIssuer,
		audience:    jwt.ClaimStrings{DefaultTokenAudience},
		now:         time.Now,
		logger:      defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	given := make(map[string]keyfunc.GivenKey, len(ts.retiredKeys)+1)
	for kid, key := range ts.retiredKeys {
		given[kid] = keyfunc.NewGivenHMAC(key, keyfunc.GivenKeyOptions{Algorithm: signingAlgorithm})
	}
	given[ts.keyID] = keyfunc.NewGivenHMAC(ts.signingKey, keyfunc.GivenKeyOptions{Algorithm: signingAlgorithm})
	ts.keys = keyfunc.NewGiven(given)

	return ts, nil
}

// NewTokenServiceFromConfig builds the service from Config
func NewTokenServiceFromConfig(cfg Config, logger Logger) (*TokenServiceImpl, error) {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		WithSigningKeyID(cfg.GetSigningKeyID()),
		WithRetiredSigningKeys(cfg.GetRetiredSigningKeys()),
		WithTokenTTL(cfg.GetTokenTTL()),
		WithTokenIssuer(cfg.GetIssuer()),
		WithTokenAudience(cfg.GetAudience()...),
		WithTokenLogger(logger),
	)
}

// Issuer returns the iss claim required on validation
func (ts *TokenServiceImpl) Issuer() string {
	return ts.issuer
}

// Audience returns the aud claims of issued tokens
func (ts *TokenServiceImpl) Audience() []string {
	return append([]string(nil), ts.audience...)
}

// TTL returns the access token lifetime
func (ts *TokenServiceImpl) TTL() time.Duration {
	return ts.ttl
}

// Generate creates a signed token for identity
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	if identity == nil || identity.ID() == "" {
		return "", errors.New("identity is required", errors.CategoryBadInput)
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UserRole:  ResolveRoleName(identity.Role()),
		UserEmail: identity.Email(),
		UserName:  identity.DisplayName(),
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the active signing key.
// Missing iss and aud claims are filled with the service values.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	ensureTokenID(&claims.RegisteredClaims)
	if claims.Issuer == "" {
		claims.Issuer = ts.issuer
	}
	if len(claims.Audience) == 0 {
		claims.Audience = ts.audience
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = ts.keyID

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
		jwt.WithIssuer(ts.issuer),
		jwt.WithAudience(ts.audience[0]),
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, ts.keys.Keyfunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired.Clone()
		}
		ts.logger.Debug("token validation failed: %v", err)
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("token service could not decode or validate claims")
	return nil, ErrTokenMalformed.Clone()
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims == nil || claims.ID != "" {
		return
	}
	claims.ID = uuid.NewString()
}
