package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidation      = "VALIDATION_FAILED"
	TextCodeUnauthenticated = "UNAUTHENTICATED"
	TextCodeForbidden       = "FORBIDDEN"
	TextCodeNotFound        = "NOT_FOUND"
	TextCodeConflict        = "CONFLICT"
)

// ErrValidation is returned for malformed or out of range input
var ErrValidation = goerrors.New("invalid input", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrUnauthenticated is returned when a protected operation has no valid principal
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when the principal may not mutate the resource
var ErrForbidden = goerrors.New("not allowed to modify this resource", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrNotFound is returned when the referenced entity does not exist
var ErrNotFound = goerrors.New("resource not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrConflict is returned when a uniqueness rule is violated
var ErrConflict = goerrors.New("resource already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeConflict).
	WithCode(goerrors.CodeConflict)

// ErrEmailTaken is the conflict raised for a normalized email already in use
var ErrEmailTaken = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN").
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials covers unknown email and wrong password alike
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrNoCredentialSet is returned for pre-provisioned accounts without a password hash
var ErrNoCredentialSet = goerrors.New("account has no password set", goerrors.CategoryValidation).
	WithTextCode("NO_CREDENTIAL_SET").
	WithCode(goerrors.CodeBadRequest)

// ErrCurrentPasswordMismatch is returned by password change when the current password is wrong
var ErrCurrentPasswordMismatch = goerrors.New("current password is incorrect", goerrors.CategoryValidation).
	WithTextCode("CURRENT_PASSWORD_MISMATCH").
	WithCode(goerrors.CodeBadRequest)

// ErrMissingSigningKey is fatal at startup
var ErrMissingSigningKey = goerrors.New("jwt signing key is not configured", goerrors.CategoryInternal).
	WithTextCode("MISSING_SIGNING_KEY").
	WithCode(goerrors.CodeInternal)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordTooLong is returned for passwords over MaxPasswordBytes
var ErrPasswordTooLong = goerrors.New("password must be at most 72 bytes", goerrors.CategoryValidation).
	WithTextCode("PASSWORD_TOO_LONG").
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned by the verifier for expired tokens
var ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned by the verifier for any other token failure
var ErrTokenMalformed = goerrors.New("token malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// NewValidationError returns a validation error carrying the given field map
func NewValidationError(message string, fields map[string]string) *goerrors.Error {
	err := goerrors.NewValidationFromMap(message, fields).
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest)
	return err
}

// NotFound clones ErrNotFound with the entity and id in metadata
func NotFound(entity string, id any) *goerrors.Error {
	return ErrNotFound.Clone().WithMetadata(map[string]any{
		"entity": entity,
		"id":     id,
	})
}

// IsValidation reports whether err belongs to the validation category
func IsValidation(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation)
}

// IsUnauthenticated reports whether err belongs to the authentication category
func IsUnauthenticated(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryAuth)
}

// IsForbidden reports whether err belongs to the authorization category
func IsForbidden(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryAuthz)
}

// IsNotFound reports whether err belongs to the not found category
func IsNotFound(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryNotFound)
}

// IsConflict reports whether err belongs to the conflict category
func IsConflict(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryConflict)
}

// HasTextCode reports whether err carries the text code of sentinel
func HasTextCode(err error, sentinel *goerrors.Error) bool {
	if err == nil || sentinel == nil {
		return false
	}
	var richErr *goerrors.Error
	return goerrors.As(err, &richErr) && richErr.TextCode == sentinel.TextCode
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == ErrTokenExpired.TextCode {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
