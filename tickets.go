package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type CreateTicketMessage struct {
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
}

func (m CreateTicketMessage) Validate() error {
	m.Subject = strings.TrimSpace(m.Subject)
	m.Description = strings.TrimSpace(m.Description)
	if verr := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&m,
			validation.Field(&m.Subject, validation.Required),
			validation.Field(&m.Description, validation.Required),
		)
	}, "invalid ticket"); verr != nil {
		return verr.WithTextCode(TextCodeValidation).WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// ResolveTicketOwner picks the ticket owner: the explicit id when given,
// else the caller, else nil
func ResolveTicketOwner(explicit *uuid.UUID, p Principal) *uuid.UUID {
	if explicit != nil && *explicit != uuid.Nil {
		id := *explicit
		return &id
	}
	return p.OwnerID()
}

// TicketService handles support tickets. Status changes are not gated by
// ownership.
type TicketService struct {
	repo        Tickets
	machine     TicketStateMachine
	machineOpts []StateMachineOption
	activity    ActivitySink
	logger      Logger
}

func NewTicketService(repo Tickets, opts ...StateMachineOption) *TicketService {
	s := &TicketService{
		repo:        repo,
		machineOpts: opts,
		activity:    noopActivitySink{},
		logger:      defLogger{},
	}
	s.machine = NewTicketStateMachine(repo, opts...)
	return s
}

// WithActivitySink sets the sink for ticket events, status changes
// included
func (s *TicketService) WithActivitySink(sink ActivitySink) *TicketService {
	s.activity = normalizeActivitySink(sink)
	return s.withMachineOption(WithStateMachineActivitySink(s.activity))
}

func (s *TicketService) WithLogger(logger Logger) *TicketService {
	s.logger = normalizeLogger(logger)
	return s.withMachineOption(WithStateMachineLogger(s.logger))
}

func (s *TicketService) withMachineOption(opt StateMachineOption) *TicketService {
	s.machineOpts = append(s.machineOpts, opt)
	s.machine = NewTicketStateMachine(s.repo, s.machineOpts...)
	return s
}

func (s *TicketService) Create(ctx context.Context, p Principal, msg CreateTicketMessage) (*SupportTicket, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	ticket, err := s.repo.Insert(ctx, &SupportTicket{
		UserID:      ResolveTicketOwner(msg.UserID, p),
		Subject:     strings.TrimSpace(msg.Subject),
		Description: strings.TrimSpace(msg.Description),
		Status:      TicketPending,
	})
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:  ActivityEventTicketCreated,
		Actor:      ActorFromPrincipal(p),
		ObjectType: "ticket",
		ObjectID:   formatID(ticket.ID),
		ToStatus:   ticket.Status,
	})

	return ticket, nil
}

func (s *TicketService) Get(ctx context.Context, id int64) (*SupportTicket, error) {
	return s.repo.Get(ctx, id)
}

// List returns up to take tickets, newest first
func (s *TicketService) List(ctx context.Context, take int) ([]*SupportTicket, error) {
	return s.repo.List(ctx, take)
}

// ListByUser filters by owner and, when status is not blank, by status
func (s *TicketService) ListByUser(ctx context.Context, userID uuid.UUID, status string) ([]*SupportTicket, error) {
	filter, err := optionalStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID, filter)
}

// Mine lists the caller's tickets
func (s *TicketService) Mine(ctx context.Context, p Principal, status string) ([]*SupportTicket, error) {
	if err := p.Require(); err != nil {
		return nil, err
	}
	return s.ListByUser(ctx, p.UserID, status)
}

// UpdateStatus moves the ticket to value. The ticket must exist, then the
// value must be present and allowed. A rejected value leaves the ticket
// unchanged.
func (s *TicketService) UpdateStatus(ctx context.Context, p Principal, id int64, value string) (*SupportTicket, error) {
	ticket, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := ParseTicketStatus(value)
	if err != nil {
		return nil, err
	}

	return s.machine.Transition(ctx, ActorFromPrincipal(p), ticket, target)
}

func optionalStatus(raw string) (*TicketStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	status, err := ParseTicketStatus(raw)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
