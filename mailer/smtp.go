package mailer

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/gomail.v2"

	"github.com/goliatone/go-accounts"
)

// Config holds the SMTP transport settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether enough settings are present to dial
func (c Config) Configured() bool {
	return c.Host != "" && c.From != ""
}

// Sender is satisfied by *gomail.Dialer
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTP delivers notifications as multipart emails
type SMTP struct {
	cfg    Config
	sender Sender
	logger accounts.Logger
}

var _ accounts.Notifier = (*SMTP)(nil)

// NewSMTP returns a mailer dialing cfg.Host for every message
func NewSMTP(cfg Config, logger accounts.Logger) *SMTP {
	return &SMTP{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}
}

// WithSender replaces the dialer, mostly for tests
func (s *SMTP) WithSender(sender Sender) *SMTP {
	if sender != nil {
		s.sender = sender
	}
	return s
}

func (s *SMTP) Send(ctx context.Context, n accounts.Notification) error {
	if strings.TrimSpace(n.To) == "" {
		return goerrors.New("notification recipient is empty", goerrors.CategoryBadInput)
	}

	if err := ctx.Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "notification cancelled before sending")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", n.To)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Text)
	if n.HTML != "" {
		m.AddAlternative("text/html", n.HTML)
	}

	if err := s.sender.DialAndSend(m); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send email").
			WithMetadata(map[string]any{"to": n.To, "subject": n.Subject})
	}

	if s.logger != nil {
		s.logger.Info("email sent", "to", n.To, "subject", n.Subject)
	}

	return nil
}
