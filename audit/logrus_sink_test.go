package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/goliatone/go-storefront-auth/activitymap"
	"github.com/goliatone/go-storefront-auth/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		record := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		out = append(out, record)
	}
	return out
}

func TestLogrusSinkWritesTicketTransition(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := audit.NewLogrusSink(audit.NewLogger(buf), activitymap.WithChannel("api"))

	occurred := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	err := sink.Record(context.Background(), auth.ActivityEvent{
		EventType:  auth.ActivityEventTicketStatusChanged,
		Actor:      auth.ActorRef{ID: "u-1", Type: "Admin"},
		ObjectType: "ticket",
		ObjectID:   "42",
		FromStatus: auth.TicketPending,
		ToStatus:   auth.TicketInProgress,
		OccurredAt: occurred,
	})
	require.NoError(t, err)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	line := lines[0]

	assert.Equal(t, "info", line["severity"])
	assert.Equal(t, "ticket.status.changed", line["message"])
	assert.Equal(t, "u-1", line["actor_id"])
	assert.Equal(t, "ticket", line["object_type"])
	assert.Equal(t, "42", line["object_id"])
	assert.Equal(t, "api", line["channel"])
	assert.Equal(t, occurred.Format(time.RFC3339Nano), line["occurred_at"])
	assert.Contains(t, line, "timestamp")

	metadata, ok := line["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Pending", metadata["from_status"])
	assert.Equal(t, "InProgress", metadata["to_status"])
	assert.Equal(t, "Admin", metadata["actor_type"])
}

func TestLogrusSinkWarnsOnDenials(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := audit.NewLogrusSink(audit.NewLogger(buf))

	for _, eventType := range []auth.ActivityEventType{
		auth.ActivityEventMutationDenied,
		auth.ActivityEventLoginFailure,
		auth.ActivityEventLoginSuccess,
	} {
		require.NoError(t, sink.Record(context.Background(), auth.ActivityEvent{EventType: eventType}))
	}

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "warning", lines[0]["severity"])
	assert.Equal(t, "warning", lines[1]["severity"])
	assert.Equal(t, "info", lines[2]["severity"])
	assert.Equal(t, "system", lines[2]["actor_id"])
	assert.NotContains(t, lines[2], "object_id")
}
