package activitymap

import (
	"context"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-print"
)

// LogSink writes every activity event to logger in normalized form
func LogSink(logger accounts.Logger, opts ...Option) accounts.ActivitySink {
	return accounts.ActivitySinkFunc(func(_ context.Context, event accounts.ActivityEvent) error {
		if logger == nil {
			return nil
		}

		out := Normalize(event, opts...)
		logger.Info("activity",
			"verb", out.Verb,
			"actor", out.ActorID,
			"object", out.ObjectType+":"+out.ObjectID,
			"channel", out.Channel,
			"metadata", print.MaybePrettyJSON(out.Metadata),
			"at", out.OccurredAt,
		)
		return nil
	})
}
