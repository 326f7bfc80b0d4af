package auth

import (
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-storefront-auth/middleware/jwtware"
)

// RouteAuthenticator resolves the caller of every request and renders
// errors as JSON
type RouteAuthenticator struct {
	validator TokenValidator
	cfg       Config
	Logger    Logger
}

func NewHTTPAuthenticator(validator TokenValidator, cfg Config) *RouteAuthenticator {
	return &RouteAuthenticator{
		validator: validator,
		cfg:       cfg,
		Logger:    defLogger{},
	}
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = normalizeLogger(logger)
	return a
}

// ContextKey is the router locals key the Principal is stored under
func (a *RouteAuthenticator) ContextKey() string {
	if key := a.cfg.GetContextKey(); key != "" {
		return key
	}
	return DefaultContextKey
}

// BearerMiddleware stores a Principal for every request. Missing or
// invalid tokens produce the anonymous principal, handlers decide whether
// that is acceptable.
func (a *RouteAuthenticator) BearerMiddleware(listeners ...ValidationListener) router.MiddlewareFunc {
	cfg := jwtware.Config{
		Optional:        true,
		TokenValidator:  jwtValidatorAdapter{validator: a.validator},
		ContextKey:      a.ContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		AuthScheme:      a.cfg.GetAuthScheme(),
		LocalsMapper:    PrincipalMapper,
		ContextEnricher: ContextEnricherAdapter,
		Logger:          a.Logger,
	}
	RegisterValidationListeners(&cfg, listeners...)
	return jwtware.New(cfg)
}

// Principal returns the caller resolved by BearerMiddleware
func (a *RouteAuthenticator) Principal(c router.Context) Principal {
	return GetRouterPrincipal(c, a.ContextKey())
}

// HandleError renders err as {"error": {...}} with the status of its
// category
func (a *RouteAuthenticator) HandleError(c router.Context, err error) error {
	richErr := errors.MapToError(err, errors.DefaultErrorMappers())
	status := StatusForError(richErr)
	if richErr.Code == 0 {
		richErr.Code = status
	}

	if status >= http.StatusInternalServerError {
		a.Logger.Error("request failed: %s %s", richErr.Message, print.MaybePrettyJSON(richErr.Metadata))
	} else {
		a.Logger.Debug("request rejected: %s %s", richErr.Message, print.MaybePrettyJSON(richErr.ValidationErrors))
	}

	body := richErr.Clone()
	body.Location = nil
	return c.JSON(status, body.ToErrorResponse(false, nil))
}

// StatusForError maps the error taxonomy onto HTTP status codes
func StatusForError(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	}

	if richErr.Code >= 400 && richErr.Code < 600 {
		return richErr.Code
	}
	return http.StatusInternalServerError
}

type jwtValidatorAdapter struct {
	validator TokenValidator
}

func (j jwtValidatorAdapter) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := j.validator.Validate(raw)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, ErrTokenMalformed.Clone()
	}
	return claims, nil
}
