package accounts

import (
	"context"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// DefaultResetTokenTTL is how long a password reset token stays valid
const DefaultResetTokenTTL = time.Hour

// operationTimeout bounds the storage work of a single lifecycle call
const operationTimeout = 10 * time.Second

// Manager owns the account lifecycle: registration, verification,
// authentication and the password reset flow. Collaborators are
// injected, defaults are derived from Config.
type Manager struct {
	repo      RepositoryManager
	hasher    PasswordHasher
	secrets   SecretGenerator
	tokens    TokenSigner
	notifier  Notifier
	composer  MessageComposer
	activity  ActivitySink
	logger    Logger
	now       func() time.Time
	resetTTL  time.Duration
	hashedIDs bool
	hashID    func(email string) (uuid.UUID, error)
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithPasswordHasher overrides the bcrypt hasher
func WithPasswordHasher(h PasswordHasher) ManagerOption {
	return func(m *Manager) {
		if h != nil {
			m.hasher = h
		}
	}
}

// WithSecretGenerator overrides the source of codes and reset tokens
func WithSecretGenerator(g SecretGenerator) ManagerOption {
	return func(m *Manager) {
		if g != nil {
			m.secrets = g
		}
	}
}

// WithTokenSigner overrides the JWT token service
func WithTokenSigner(s TokenSigner) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.tokens = s
		}
	}
}

// WithNotifier sets the notification channel. Wrap slow transports in
// an AsyncNotifier, the manager calls Send inline.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithViews renders email bodies from templates
func WithViews(v ViewRenderer) ManagerOption {
	return func(m *Manager) {
		m.composer.Views = v
	}
}

// WithActivitySink sets the sink used to emit lifecycle events.
func WithActivitySink(sink ActivitySink) ManagerOption {
	return func(m *Manager) {
		m.activity = normalizeActivitySink(sink)
	}
}

// WithLogger overrides the logger
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source, used for token expiry checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithHashedIDs derives account ids from the email address with hashid
func WithHashedIDs(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.hashedIDs = enabled
	}
}

// WithHashedIDFunc enables hashed ids derived by fn instead of hashid
func WithHashedIDFunc(fn func(email string) (uuid.UUID, error)) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.hashedIDs = true
			m.hashID = fn
		}
	}
}

// NewManager returns a Manager backed by repo
func NewManager(repo RepositoryManager, cfg Config, opts ...ManagerOption) *Manager {
	if repo == nil {
		panic("accounts: NewManager requires a RepositoryManager")
	}

	m := &Manager{
		repo:     repo,
		hasher:   NewBcryptHasher(cfg.GetBcryptCost()),
		secrets:  HexSecretGenerator{},
		notifier: NotifierFunc(nil),
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
		resetTTL: cfg.GetResetTokenTTL(),
		hashID:   hashid.NewUUID,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.resetTTL <= 0 {
		m.resetTTL = DefaultResetTokenTTL
	}

	if m.tokens == nil {
		m.tokens = NewTokenService(cfg, m.logger).WithClock(m.now)
	}

	m.composer.Domain = cfg.GetDomain()
	m.composer.Logger = m.logger

	return m
}

// Tokens returns the signer used for issued tokens
func (m *Manager) Tokens() TokenSigner {
	return m.tokens
}

// Register creates an unverified account and sends the verification email
func (m *Manager) Register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	var created *Account
	msg.OnResponse = func(a *Account) {
		created = a
	}

	if err := NewRegisterAccountHandler(m).Execute(ctx, msg); err != nil {
		return nil, err
	}

	return created, nil
}

// VerifyAccount consumes a verification code
func (m *Manager) VerifyAccount(ctx context.Context, code string) error {
	return NewVerifyAccountHandler(m).Execute(ctx, VerifyAccountMessage{Code: code})
}

// Authenticate checks credentials and issues a bearer token
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*AuthenticateResponse, error) {
	var resp *AuthenticateResponse
	msg := AuthenticateMessage{
		Username: username,
		Password: password,
		OnResponse: func(r *AuthenticateResponse) {
			resp = r
		},
	}

	if err := NewAuthenticateHandler(m).Execute(ctx, msg); err != nil {
		return nil, err
	}

	return resp, nil
}

// InitiatePasswordReset issues a reset token and emails the reset link
func (m *Manager) InitiatePasswordReset(ctx context.Context, email string) error {
	return NewInitializePasswordResetHandler(m).Execute(ctx, InitializePasswordResetMessage{Email: email})
}

// ValidateResetToken reports whether token can still complete a reset,
// without consuming it.
func (m *Manager) ValidateResetToken(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrInvalidResetToken
	}

	account, err := m.repo.Accounts().FindByResetToken(ctx, token, m.now())
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrInvalidResetToken
		}
		return nil, asRichError(err, "failed to look up reset token")
	}

	return account, nil
}

// CompletePasswordReset sets a new password using a live reset token
func (m *Manager) CompletePasswordReset(ctx context.Context, token, password string) error {
	return NewFinalizePasswordResetHandler(m).Execute(ctx, FinalizePasswordResetMessage{
		Token:    token,
		Password: password,
	})
}

// Profile resolves the account named by verified token claims
func (m *Manager) Profile(ctx context.Context, claims *AccountClaims) (PublicAccount, error) {
	if claims == nil {
		return PublicAccount{}, ErrTokenMalformed
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return PublicAccount{}, ErrTokenMalformed
	}

	account, err := m.repo.Accounts().FindByID(ctx, id)
	if err != nil {
		if isRecordNotFound(err) {
			return PublicAccount{}, ErrAccountGone
		}
		return PublicAccount{}, asRichError(err, "failed to load profile")
	}

	return account.Public(), nil
}

// notify dispatches n, failures are logged and never returned
func (m *Manager) notify(ctx context.Context, n Notification) {
	if err := m.notifier.Send(ctx, n); err != nil {
		m.logger.Error("notification failed", "to", n.To, "subject", n.Subject, "error", err)
	}
}

func (m *Manager) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}
	recordActivity(ctx, m.activity, m.logger, event)
}

func (m *Manager) timestamp() time.Time {
	return m.now().UTC()
}
