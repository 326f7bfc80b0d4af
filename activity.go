package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventUserRegistered      ActivityEventType = "auth.user.registered"
	ActivityEventLoginSuccess        ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure        ActivityEventType = "auth.login.failure"
	ActivityEventPasswordRehashed    ActivityEventType = "auth.password.rehashed"
	ActivityEventPasswordChanged     ActivityEventType = "auth.password.changed"
	ActivityEventProfileUpdated      ActivityEventType = "user.profile.updated"
	ActivityEventReviewCreated       ActivityEventType = "review.created"
	ActivityEventReviewUpdated       ActivityEventType = "review.updated"
	ActivityEventReviewDeleted       ActivityEventType = "review.deleted"
	ActivityEventMutationDenied      ActivityEventType = "ownership.denied"
	ActivityEventTicketCreated       ActivityEventType = "ticket.created"
	ActivityEventTicketStatusChanged ActivityEventType = "ticket.status.changed"
)

// ActorRef identifies who/what triggered an action.
type ActorRef struct {
	ID   string
	Type string
}

// ActorFromPrincipal builds the actor reference for p
func ActorFromPrincipal(p Principal) ActorRef {
	if !p.IsAuthenticated() {
		return ActorRef{Type: "anonymous"}
	}
	return ActorRef{ID: p.UserID.String(), Type: ResolveRoleName(p.Role)}
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	ObjectType string
	ObjectID   string
	FromStatus TicketStatus
	ToStatus   TicketStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// recordActivity fills defaults and swallows sink failures after logging them
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil {
		normalizeLogger(logger).Warn("activity sink error: %v", err)
	}
}
