package accounts

import (
	"context"
	"fmt"
	"time"
)

// Logger is the structured logger used across the package. Arguments
// after the message are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the options the lifecycle manager and token service need
type Config interface {
	GetSigningKey() string
	GetSigningKeyID() string
	GetPreviousSigningKeys() map[string]string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetResetTokenTTL() time.Duration
	GetDomain() string
	GetBcryptCost() int
}

// PasswordHasher derives and checks one way password digests
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// SecretGenerator produces random opaque secrets, hex encoded.
type SecretGenerator interface {
	Generate(size int) (string, error)
}

// TokenSigner issues and verifies bearer tokens.
type TokenSigner interface {
	Sign(claims *AccountClaims) (string, error)
	Validate(tokenString string) (*AccountClaims, error)
}

// Notification is a single outbound message.
type Notification struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers notifications. Implementations may block; the
// manager never waits on them, see AsyncNotifier.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Send implements Notifier.
func (f NotifierFunc) Send(ctx context.Context, n Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, n)
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	d.print("DBG", msg, args...)
}

func (d defLogger) Info(msg string, args ...any) {
	d.print("INF", msg, args...)
}

func (d defLogger) Warn(msg string, args ...any) {
	d.print("WRN", msg, args...)
}

func (d defLogger) Error(msg string, args ...any) {
	d.print("ERR", msg, args...)
}

func (d defLogger) print(level, msg string, args ...any) {
	line := fmt.Sprintf("[%s] ACCOUNTS %s", level, msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
		} else {
			line += fmt.Sprintf(" %v", args[i])
		}
	}
	fmt.Println(line)
}

func normalizeLogger(logger Logger) Logger {
	if logger == nil {
		return defLogger{}
	}
	return logger
}
