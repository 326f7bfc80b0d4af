package auth

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ParseUserID parses a user id path or query value
func ParseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, NewValidationError("invalid user id", map[string]string{"userId": "must be a valid id"})
	}
	return id, nil
}

// ParseNumericID parses a positive integer path value
func ParseNumericID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewValidationError("invalid "+field, map[string]string{field: "must be a positive integer"})
	}
	return id, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
