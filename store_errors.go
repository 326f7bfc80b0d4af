package auth

import (
	"database/sql"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint failure from
// Postgres or SQLite
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	if repository.IsDuplicatedKey(err) {
		return true
	}

	var pgErr pgdriver.Error
	if goerrors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, pgUniqueViolation)
}

// IsRecordNotFound reports whether err means no row matched
func IsRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) || IsNotFound(err)
}

// translateStoreError maps storage failures onto the error taxonomy
func translateStoreError(err error, entity string, meta map[string]any) error {
	if err == nil {
		return nil
	}

	if IsUniqueViolation(err) {
		conflict := ErrConflict.Clone().WithMetadata(map[string]any{"entity": entity})
		if len(meta) > 0 {
			conflict.WithMetadata(meta)
		}
		conflict.Source = err
		return conflict
	}

	if IsRecordNotFound(err) {
		nf := NotFound(entity, meta["id"])
		nf.Source = err
		return nf
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "storage error: "+entity)
}
