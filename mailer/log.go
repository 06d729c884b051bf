package mailer

import (
	"context"

	"github.com/goliatone/go-accounts"
)

// Log writes notifications to the logger instead of sending them, for
// local development where no SMTP server is configured.
type Log struct {
	logger accounts.Logger
}

var _ accounts.Notifier = (*Log)(nil)

func NewLog(logger accounts.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(_ context.Context, n accounts.Notification) error {
	l.logger.Info("====== EMAIL NOTIFICATION ======",
		"to", n.To,
		"subject", n.Subject,
		"text", n.Text,
	)
	return nil
}
