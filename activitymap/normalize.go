package activitymap

import (
	"maps"
	"strings"
	"time"

	accounts "github.com/goliatone/go-accounts"
)

const (
	// MetadataKeyFromState stores the account state before the event
	MetadataKeyFromState = "from_state"
	// MetadataKeyToState stores the account state after the event
	MetadataKeyToState = "to_state"
)

const (
	DefaultChannel = "accounts"

	ObjectAccount      = "account"
	ObjectNotification = "notification"

	// ActorAnonymous acts for events that name no account, such as a
	// login attempt with an unknown username
	ActorAnonymous = "anonymous"
	// ActorSystem acts for notification deliveries
	ActorSystem = "system"
)

// Normalized is a transport agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization
type Option func(*options)

type options struct {
	channel string
}

// WithChannel tags every record with channel, blank keeps the default
func WithChannel(channel string) Option {
	return func(o *options) {
		if channel = strings.TrimSpace(channel); channel != "" {
			o.channel = channel
		}
	}
}

// Normalize converts an accounts.ActivityEvent into the normalized shape.
// Lifecycle events are self service, the account acts on itself.
// Notification events are attributed to the system and target the
// recipient address.
func Normalize(event accounts.ActivityEvent, opts ...Option) Normalized {
	o := options{channel: DefaultChannel}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	accountID := strings.TrimSpace(event.AccountID)
	out := Normalized{
		ActorID:    accountID,
		Verb:       string(event.EventType),
		ObjectType: ObjectAccount,
		ObjectID:   accountID,
		Channel:    o.channel,
		Metadata:   metadataFor(event),
		OccurredAt: event.OccurredAt,
	}

	switch event.EventType {
	case accounts.ActivityEventNotificationDelivered, accounts.ActivityEventNotificationFailed:
		out.ActorID = ActorSystem
		out.ObjectType = ObjectNotification
		out.ObjectID, _ = event.Metadata["to"].(string)
	}

	if out.ActorID == "" {
		out.ActorID = ActorAnonymous
	}

	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now().UTC()
	}

	return out
}

// metadataFor copies the event metadata and adds the state transition,
// the event itself is left untouched
func metadataFor(event accounts.ActivityEvent) map[string]any {
	metadata := maps.Clone(event.Metadata)

	set := func(key string, state accounts.AccountState) {
		if state == "" {
			return
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = state
	}

	set(MetadataKeyFromState, event.FromState)
	set(MetadataKeyToState, event.ToState)

	return metadata
}
