package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// OwnedResource is anything a principal may need to own before mutating it.
// ResourceOwnerID is nil when ownership was never recorded. ResourceAuthorName
// is the free text author used by the name fallback, empty when the
// resource has none.
type OwnedResource interface {
	ResourceOwnerID() *uuid.UUID
	ResourceAuthorName() string
}

// OwnedBy is an OwnedResource with an explicit owner and no author name
type OwnedBy uuid.UUID

// ResourceOwnerID implements OwnedResource
func (o OwnedBy) ResourceOwnerID() *uuid.UUID {
	id := uuid.UUID(o)
	return &id
}

// ResourceAuthorName implements OwnedResource
func (o OwnedBy) ResourceAuthorName() string { return "" }

// CanMutate decides whether p may modify r. Rules apply in order:
//
//  1. admins may mutate anything
//  2. an explicit owner id must equal the principal id
//  3. only when no owner id was recorded, the principal display name is
//     compared against the author name (see MatchesAuthorName)
//  4. everything else is denied
//
// A resource whose owner id is set but different never reaches rule 3.
func CanMutate(p Principal, r OwnedResource) bool {
	if !p.IsAuthenticated() || r == nil {
		return false
	}

	if IsAdmin(p.Role) {
		return true
	}

	if owner := r.ResourceOwnerID(); owner != nil {
		return *owner == p.UserID
	}

	return MatchesAuthorName(p.DisplayName, r.ResourceAuthorName())
}

// MatchesAuthorName is the legacy ownership fallback for rows without an
// owner id. After trimming and lowercasing both values it matches when the
// names are equal, when the display name contains the author name, or when
// the author name equals the first word of the display name.
//
// The rule is permissive: "Ajdin Zahirović" matches a review signed "Ajdin"
// and also one signed "din". Any principal sharing a first name with an
// unowned review's author can edit it. Rows should be backfilled with owner
// ids rather than relying on this.
func MatchesAuthorName(displayName, authorName string) bool {
	a := strings.ToLower(strings.TrimSpace(displayName))
	b := strings.ToLower(strings.TrimSpace(authorName))
	if a == "" || b == "" {
		return false
	}

	if a == b || strings.Contains(a, b) {
		return true
	}

	if fields := strings.Fields(a); len(fields) > 0 && fields[0] == b {
		return true
	}

	return false
}

// Authorize returns ErrUnauthenticated for anonymous principals and
// ErrForbidden when CanMutate denies
func Authorize(p Principal, r OwnedResource) error {
	if err := p.Require(); err != nil {
		return err
	}
	if !CanMutate(p, r) {
		return ErrForbidden.Clone().WithMetadata(map[string]any{
			"user_id": p.UserID.String(),
		})
	}
	return nil
}

// authorizeMutation runs Authorize and records a denial event on failure
func authorizeMutation(ctx context.Context, sink ActivitySink, logger Logger, p Principal, r OwnedResource, objectType, objectID string) error {
	if err := Authorize(p, r); err != nil {
		normalizeLogger(logger).Debug("mutation denied on %s %s for %s", objectType, objectID, p.UserID)
		recordActivity(ctx, sink, logger, ActivityEvent{
			EventType:  ActivityEventMutationDenied,
			Actor:      ActorFromPrincipal(p),
			ObjectType: objectType,
			ObjectID:   objectID,
		})
		return err
	}
	return nil
}
