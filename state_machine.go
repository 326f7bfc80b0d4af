package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// TicketStatus is the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketPending    TicketStatus = "Pending"
	TicketInProgress TicketStatus = "InProgress"
	TicketCompleted  TicketStatus = "Completed"
)

const textCodeInvalidTicketStatus = "INVALID_TICKET_STATUS"

// ErrInvalidTicketStatus is returned for values outside the allowed set
var ErrInvalidTicketStatus = goerrors.New("allowed statuses are: Pending, InProgress, Completed", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTicketStatus).
	WithCode(goerrors.CodeBadRequest)

// ErrTicketStatusRequired is returned for an empty status value
var ErrTicketStatusRequired = goerrors.New("status is required", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTicketStatus).
	WithCode(goerrors.CodeBadRequest)

// TicketStatuses returns the allowed statuses in display order
func TicketStatuses() []TicketStatus {
	return []TicketStatus{TicketPending, TicketInProgress, TicketCompleted}
}

// IsValid reports whether s is one of the allowed statuses. The comparison
// is case sensitive.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketPending, TicketInProgress, TicketCompleted:
		return true
	default:
		return false
	}
}

// ParseTicketStatus validates a raw status value
func ParseTicketStatus(value string) (TicketStatus, error) {
	if strings.TrimSpace(value) == "" {
		return "", ErrTicketStatusRequired.Clone()
	}
	status := TicketStatus(value)
	if !status.IsValid() {
		return "", ErrInvalidTicketStatus.Clone().WithMetadata(map[string]any{
			"value": value,
		})
	}
	return status, nil
}

// TicketStatusStore persists a status change
type TicketStatusStore interface {
	UpdateStatus(ctx context.Context, id int64, status TicketStatus) (*SupportTicket, error)
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor  ActorRef
	Ticket *SupportTicket
	From   TicketStatus
	To     TicketStatus
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

type transitionOptions struct {
	metadata    map[string]any
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

// WithTransitionMetadata merges metadata into the emitted activity event.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata == nil {
			opts.metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata[k] = v
		}
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
// A hook error aborts the transition and leaves the status unchanged.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// TicketStateMachine moves tickets between statuses.
type TicketStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, ticket *SupportTicket, target TicketStatus, opts ...TransitionOption) (*SupportTicket, error)
	CanTransition(from, to TicketStatus) bool
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*ticketStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *ticketStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish status events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *ticketStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *ticketStateMachine) {
		sm.logger = normalizeLogger(logger)
	}
}

// NewTicketStateMachine returns the default machine. Every valid status may
// move to every other valid status and no status is terminal.
func NewTicketStateMachine(store TicketStatusStore, opts ...StateMachineOption) TicketStateMachine {
	transitions := map[TicketStatus]map[TicketStatus]struct{}{}
	for _, from := range TicketStatuses() {
		transitions[from] = map[TicketStatus]struct{}{}
		for _, to := range TicketStatuses() {
			transitions[from][to] = struct{}{}
		}
	}

	sm := &ticketStateMachine{
		store:        store,
		transitions:  transitions,
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type ticketStateMachine struct {
	store        TicketStatusStore
	transitions  map[TicketStatus]map[TicketStatus]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

func (sm *ticketStateMachine) Transition(ctx context.Context, actor ActorRef, ticket *SupportTicket, target TicketStatus, opts ...TransitionOption) (*SupportTicket, error) {
	if ticket == nil {
		return nil, goerrors.New("ticket is required", goerrors.CategoryBadInput)
	}

	if !target.IsValid() {
		return nil, ErrInvalidTicketStatus.Clone().WithMetadata(map[string]any{
			"value": string(target),
		})
	}

	from := ticket.Status
	if from == "" {
		from = TicketPending
	}

	if !sm.CanTransition(from, target) {
		return nil, ErrInvalidTicketStatus.Clone().WithMetadata(map[string]any{
			"from": string(from),
			"to":   string(target),
		})
	}

	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	tc := TransitionContext{
		Actor:  actor,
		Ticket: ticket,
		From:   from,
		To:     target,
	}

	if err := runHooks(ctx, options.beforeHooks, tc); err != nil {
		return nil, err
	}

	updated, err := sm.store.UpdateStatus(ctx, ticket.ID, target)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		ticket.Status = target
		updated = ticket
	}

	if err := runHooks(ctx, options.afterHooks, tc); err != nil {
		return nil, err
	}

	recordActivity(ctx, sm.activitySink, sm.logger, ActivityEvent{
		EventType:  ActivityEventTicketStatusChanged,
		Actor:      actor,
		ObjectType: "ticket",
		ObjectID:   formatID(ticket.ID),
		FromStatus: from,
		ToStatus:   target,
		Metadata:   options.metadata,
		OccurredAt: sm.now(),
	})

	return updated, nil
}

func (sm *ticketStateMachine) CanTransition(from, to TicketStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			return err
		}
	}
	return nil
}
