package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTicketStatusStore struct {
	mock.Mock
}

func (m *MockTicketStatusStore) UpdateStatus(ctx context.Context, id int64, status auth.TicketStatus) (*auth.SupportTicket, error) {
	args := m.Called(ctx, id, status)
	ticket, _ := args.Get(0).(*auth.SupportTicket)
	return ticket, args.Error(1)
}

type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event auth.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestParseTicketStatus(t *testing.T) {
	tests := []struct {
		value    string
		want     auth.TicketStatus
		required bool
		invalid  bool
	}{
		{value: "Pending", want: auth.TicketPending},
		{value: "InProgress", want: auth.TicketInProgress},
		{value: "Completed", want: auth.TicketCompleted},
		{value: "", required: true},
		{value: "   ", required: true},
		{value: "pending", invalid: true},
		{value: "Closed", invalid: true},
		{value: " Pending", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := auth.ParseTicketStatus(tt.value)
			switch {
			case tt.required:
				require.Error(t, err)
				assert.True(t, auth.IsValidation(err))
				assert.Contains(t, err.Error(), auth.ErrTicketStatusRequired.Message)
			case tt.invalid:
				require.Error(t, err)
				assert.True(t, auth.IsValidation(err))
				assert.Contains(t, err.Error(), "Pending, InProgress, Completed")
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTicketStateMachineAllowsAnyToAny(t *testing.T) {
	sm := auth.NewTicketStateMachine(&MockTicketStatusStore{})

	for _, from := range auth.TicketStatuses() {
		for _, to := range auth.TicketStatuses() {
			assert.True(t, sm.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, sm.CanTransition("Closed", auth.TicketPending))
}

func TestTicketStateMachineTransition(t *testing.T) {
	store := &MockTicketStatusStore{}
	ticket := &auth.SupportTicket{ID: 7, Status: auth.TicketCompleted}

	store.On("UpdateStatus", mock.Anything, int64(7), auth.TicketPending).
		Return(&auth.SupportTicket{ID: 7, Status: auth.TicketPending}, nil).Once()

	sm := auth.NewTicketStateMachine(store, auth.WithStateMachineLogger(nopLogger{}))

	result, err := sm.Transition(context.Background(), auth.ActorRef{ID: "agent"}, ticket, auth.TicketPending)
	require.NoError(t, err)
	assert.Equal(t, auth.TicketPending, result.Status)
	store.AssertExpectations(t)
}

func TestTicketStateMachineRejectsUnknownStatus(t *testing.T) {
	store := &MockTicketStatusStore{}
	ticket := &auth.SupportTicket{ID: 3, Status: auth.TicketInProgress}

	sm := auth.NewTicketStateMachine(store)

	_, err := sm.Transition(context.Background(), auth.ActorRef{}, ticket, "Archived")
	require.Error(t, err)
	assert.True(t, auth.IsValidation(err))
	assert.Equal(t, auth.TicketInProgress, ticket.Status)
	store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)

	_, err = sm.Transition(context.Background(), auth.ActorRef{}, nil, auth.TicketPending)
	assert.Error(t, err)
}

func TestTicketStateMachineBeforeHookAborts(t *testing.T) {
	store := &MockTicketStatusStore{}
	ticket := &auth.SupportTicket{ID: 4, Status: auth.TicketPending}
	stop := errors.New("frozen")

	sm := auth.NewTicketStateMachine(store)

	_, err := sm.Transition(context.Background(), auth.ActorRef{}, ticket, auth.TicketCompleted,
		auth.WithBeforeTransitionHook(func(context.Context, auth.TransitionContext) error { return stop }),
	)
	assert.ErrorIs(t, err, stop)
	store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTicketStateMachineRunsHooks(t *testing.T) {
	store := &MockTicketStatusStore{}
	ticket := &auth.SupportTicket{ID: 5}

	store.On("UpdateStatus", mock.Anything, int64(5), auth.TicketInProgress).Return(nil, nil).Once()

	var calls []string
	hook := func(name string) auth.TransitionHook {
		return func(_ context.Context, tc auth.TransitionContext) error {
			calls = append(calls, name)
			assert.Equal(t, auth.TicketPending, tc.From)
			assert.Equal(t, auth.TicketInProgress, tc.To)
			return nil
		}
	}

	sm := auth.NewTicketStateMachine(store)

	result, err := sm.Transition(context.Background(), auth.ActorRef{}, ticket, auth.TicketInProgress,
		auth.WithBeforeTransitionHook(hook("before")),
		auth.WithAfterTransitionHook(hook("after")),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"before", "after"}, calls)
	assert.Equal(t, auth.TicketInProgress, result.Status)
	store.AssertExpectations(t)
}

func TestTicketStateMachineEmitsActivityEvent(t *testing.T) {
	store := &MockTicketStatusStore{}
	sink := &MockActivitySink{}
	now := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	ticket := &auth.SupportTicket{ID: 11, Status: auth.TicketPending}

	store.On("UpdateStatus", mock.Anything, int64(11), auth.TicketCompleted).
		Return(&auth.SupportTicket{ID: 11, Status: auth.TicketCompleted}, nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt auth.ActivityEvent) bool {
		return evt.EventType == auth.ActivityEventTicketStatusChanged &&
			evt.ObjectID == "11" &&
			evt.Actor.ID == "agent" &&
			evt.FromStatus == auth.TicketPending &&
			evt.ToStatus == auth.TicketCompleted &&
			evt.Metadata["channel"] == "api" &&
			evt.OccurredAt.Equal(now)
	})).Return(nil).Once()

	sm := auth.NewTicketStateMachine(
		store,
		auth.WithStateMachineClock(func() time.Time { return now }),
		auth.WithStateMachineActivitySink(sink),
	)

	_, err := sm.Transition(context.Background(), auth.ActorRef{ID: "agent"}, ticket, auth.TicketCompleted,
		auth.WithTransitionMetadata(map[string]any{"channel": "api"}),
	)
	require.NoError(t, err)

	store.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestTicketStateMachineSinkErrorIsIgnored(t *testing.T) {
	store := &MockTicketStatusStore{}
	sink := &MockActivitySink{}
	ticket := &auth.SupportTicket{ID: 12, Status: auth.TicketPending}

	store.On("UpdateStatus", mock.Anything, int64(12), auth.TicketInProgress).
		Return(&auth.SupportTicket{ID: 12, Status: auth.TicketInProgress}, nil).Once()
	sink.On("Record", mock.Anything, mock.Anything).Return(errors.New("sink down")).Once()

	sm := auth.NewTicketStateMachine(store,
		auth.WithStateMachineActivitySink(sink),
		auth.WithStateMachineLogger(nopLogger{}),
	)

	result, err := sm.Transition(context.Background(), auth.ActorRef{}, ticket, auth.TicketInProgress)
	require.NoError(t, err)
	assert.Equal(t, auth.TicketInProgress, result.Status)
	sink.AssertExpectations(t)
}
