package activitymap_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/activitymap"
)

func TestNormalizeLifecycleEvent(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := accounts.ActivityEvent{
		EventType: accounts.ActivityEventAccountVerified,
		AccountID: "account-100",
		FromState: accounts.StateUnverified,
		ToState:   accounts.StateVerified,
		Metadata: map[string]any{
			"username": "alice",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "account-100" {
		t.Fatalf("expected actor_id account-100, got %q", out.ActorID)
	}
	if out.Verb != string(accounts.ActivityEventAccountVerified) {
		t.Fatalf("expected verb %q, got %q", accounts.ActivityEventAccountVerified, out.Verb)
	}
	if out.ObjectType != activitymap.ObjectAccount || out.ObjectID != "account-100" {
		t.Fatalf("expected object account:account-100, got %s:%s", out.ObjectType, out.ObjectID)
	}
	if out.Channel != activitymap.DefaultChannel {
		t.Fatalf("expected channel %q, got %q", activitymap.DefaultChannel, out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata["username"] != "alice" {
		t.Fatalf("expected metadata username alice, got %#v", out.Metadata["username"])
	}
	if out.Metadata[activitymap.MetadataKeyFromState] != accounts.StateUnverified {
		t.Fatalf("expected from_state unverified, got %#v", out.Metadata[activitymap.MetadataKeyFromState])
	}
	if out.Metadata[activitymap.MetadataKeyToState] != accounts.StateVerified {
		t.Fatalf("expected to_state verified, got %#v", out.Metadata[activitymap.MetadataKeyToState])
	}

	if len(event.Metadata) != 1 {
		t.Fatalf("expected source metadata to remain unchanged, got %+v", event.Metadata)
	}
}

func TestNormalizeNotificationEvent(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(accounts.ActivityEvent{
		EventType: accounts.ActivityEventNotificationFailed,
		Metadata: map[string]any{
			"to":    "alice@x.com",
			"error": "smtp down",
		},
	}, activitymap.WithChannel("mail"))

	if out.ActorID != activitymap.ActorSystem {
		t.Fatalf("expected actor_id system, got %q", out.ActorID)
	}
	if out.ObjectType != activitymap.ObjectNotification || out.ObjectID != "alice@x.com" {
		t.Fatalf("expected object notification:alice@x.com, got %s:%s", out.ObjectType, out.ObjectID)
	}
	if out.Channel != "mail" {
		t.Fatalf("expected channel mail, got %q", out.Channel)
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set when input is zero")
	}
}

func TestNormalizeActor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  accounts.ActivityEvent
		expect string
	}{
		{
			name:   "account acts on itself",
			event:  accounts.ActivityEvent{EventType: accounts.ActivityEventLoginSuccess, AccountID: "account-1"},
			expect: "account-1",
		},
		{
			name:   "unknown username is anonymous",
			event:  accounts.ActivityEvent{EventType: accounts.ActivityEventLoginFailure},
			expect: activitymap.ActorAnonymous,
		},
		{
			name:   "deliveries are attributed to the system",
			event:  accounts.ActivityEvent{EventType: accounts.ActivityEventNotificationDelivered, AccountID: "account-2"},
			expect: activitymap.ActorSystem,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := activitymap.Normalize(tc.event)
			if out.ActorID != tc.expect {
				t.Fatalf("expected actor_id %q, got %q", tc.expect, out.ActorID)
			}
		})
	}
}

func TestWithChannelIgnoresBlank(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(accounts.ActivityEvent{}, activitymap.WithChannel("  "))
	if out.Channel != activitymap.DefaultChannel {
		t.Fatalf("expected default channel, got %q", out.Channel)
	}
}

type captureLogger struct {
	lines []string
}

func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Info(msg string, args ...any) {
	l.lines = append(l.lines, fmt.Sprint(append([]any{msg}, args...)...))
}
func (l *captureLogger) Warn(string, ...any)  {}
func (l *captureLogger) Error(string, ...any) {}

func TestLogSink(t *testing.T) {
	logger := &captureLogger{}
	sink := activitymap.LogSink(logger, activitymap.WithChannel("audit"))

	err := sink.Record(context.Background(), accounts.ActivityEvent{
		EventType: accounts.ActivityEventLoginSuccess,
		AccountID: "account-7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(logger.lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(logger.lines))
	}
	if !strings.Contains(logger.lines[0], "audit") {
		t.Fatalf("expected channel audit in %q", logger.lines[0])
	}

	if err := activitymap.LogSink(nil).Record(context.Background(), accounts.ActivityEvent{}); err != nil {
		t.Fatalf("nil logger should be ignored, got %v", err)
	}
}
