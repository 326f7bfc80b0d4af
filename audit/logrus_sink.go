// Package audit writes activity events as structured JSON lines.
package audit

import (
	"context"
	"io"
	"os"
	"time"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/goliatone/go-storefront-auth/activitymap"
	"github.com/sirupsen/logrus"
)

// LogrusSink records activity events through a logrus logger
type LogrusSink struct {
	log     *logrus.Logger
	options []activitymap.Option
}

var _ auth.ActivitySink = (*LogrusSink)(nil)

// NewLogger returns a logrus logger writing JSON lines to out
func NewLogger(out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = out
	return log
}

// NewLogrusSink records events to log. Options are passed to
// activitymap.Normalize.
func NewLogrusSink(log *logrus.Logger, opts ...activitymap.Option) *LogrusSink {
	if log == nil {
		log = NewLogger(nil)
	}
	return &LogrusSink{log: log, options: opts}
}

// Record implements auth.ActivitySink. Denied mutations and failed logins
// are logged at warn level.
func (s *LogrusSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	record := activitymap.Normalize(event, s.options...)

	fields := logrus.Fields{
		"actor_id":    record.ActorID,
		"verb":        record.Verb,
		"channel":     record.Channel,
		"occurred_at": record.OccurredAt.Format(time.RFC3339Nano),
	}
	if record.ObjectType != "" {
		fields["object_type"] = record.ObjectType
	}
	if record.ObjectID != "" {
		fields["object_id"] = record.ObjectID
	}
	if len(record.Metadata) > 0 {
		fields["metadata"] = record.Metadata
	}

	entry := s.log.WithContext(ctx).WithFields(fields)
	switch event.EventType {
	case auth.ActivityEventLoginFailure, auth.ActivityEventMutationDenied:
		entry.Warn(record.Verb)
	default:
		entry.Info(record.Verb)
	}
	return nil
}
