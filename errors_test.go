package auth_test

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-storefront-auth"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"expired sentinel", auth.ErrTokenExpired, true},
		{"expired clone", auth.ErrTokenExpired.Clone(), true},
		{"jwt message", errors.New("token has invalid claims: token is expired"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"token is malformed", errors.New("token is malformed: could not base64 decode"), true},
		{"missing jwt", errors.New("missing or malformed JWT"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsMalformedError(tt.err))
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"validation", auth.ErrValidation.Clone(), auth.IsValidation, http.StatusBadRequest},
		{"unauthenticated", auth.ErrUnauthenticated.Clone(), auth.IsUnauthenticated, http.StatusUnauthorized},
		{"invalid credentials", auth.ErrInvalidCredentials.Clone(), auth.IsUnauthenticated, http.StatusUnauthorized},
		{"forbidden", auth.ErrForbidden.Clone(), auth.IsForbidden, http.StatusForbidden},
		{"not found", auth.NotFound("review", 7), auth.IsNotFound, http.StatusNotFound},
		{"conflict", auth.ErrConflict.Clone(), auth.IsConflict, http.StatusConflict},
		{"email taken", auth.ErrEmailTaken.Clone(), auth.IsConflict, http.StatusConflict},
		{"no credential", auth.ErrNoCredentialSet.Clone(), auth.IsValidation, http.StatusBadRequest},
		{"ticket status", auth.ErrInvalidTicketStatus.Clone(), auth.IsValidation, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.status, auth.StatusForError(tt.err))
		})
	}
}

func TestStatusForErrorFallbacks(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, auth.StatusForError(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, auth.StatusForError(auth.ErrMissingSigningKey))
	assert.Equal(t, http.StatusBadRequest, auth.StatusForError(goerrors.New("bad", goerrors.CategoryBadInput)))

	limited := goerrors.New("slow down", goerrors.CategoryRateLimit).WithCode(http.StatusTooManyRequests)
	assert.Equal(t, http.StatusTooManyRequests, auth.StatusForError(limited))
}

func TestHasTextCode(t *testing.T) {
	wrapped := goerrors.Wrap(auth.ErrEmailTaken.Clone(), goerrors.CategoryConflict, "registration failed")

	assert.True(t, auth.HasTextCode(auth.ErrEmailTaken.Clone(), auth.ErrEmailTaken))
	assert.False(t, auth.HasTextCode(auth.ErrConflict.Clone(), auth.ErrEmailTaken))
	assert.False(t, auth.HasTextCode(nil, auth.ErrEmailTaken))
	assert.False(t, auth.HasTextCode(errors.New("plain"), auth.ErrEmailTaken))
	assert.False(t, auth.HasTextCode(auth.ErrEmailTaken, nil))
	assert.True(t, auth.IsConflict(wrapped))
}

func TestNotFoundMetadata(t *testing.T) {
	err := auth.NotFound("ticket", int64(12))

	assert.Equal(t, "ticket", err.Metadata["entity"])
	assert.Equal(t, int64(12), err.Metadata["id"])
	assert.Equal(t, auth.TextCodeNotFound, err.TextCode)
	assert.Empty(t, auth.ErrNotFound.Metadata)
}

func TestNewValidationError(t *testing.T) {
	err := auth.NewValidationError("invalid review", map[string]string{"rating": "must be between 1 and 5"})

	assert.True(t, auth.IsValidation(err))
	assert.Equal(t, auth.TextCodeValidation, err.TextCode)
	assert.Equal(t, http.StatusBadRequest, err.Code)
	assert.NotEmpty(t, err.ValidationErrors)
}
