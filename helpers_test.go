package accounts_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/config"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Auth.SigningKey = testSigningKey
	cfg.Auth.BcryptCost = 4
	cfg.Domain = "http://localhost:5000/users"
	return cfg
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	// every connection would get its own in memory database
	sqldb.SetMaxOpenConns(1)

	require.NoError(t, accounts.Migrate(context.Background(), sqldb, "sqlite3"))

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type outbox struct {
	mu   sync.Mutex
	sent []accounts.Notification
}

func (o *outbox) Send(_ context.Context, n accounts.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, n)
	return nil
}

func (o *outbox) Messages() []accounts.Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]accounts.Notification, len(o.sent))
	copy(out, o.sent)
	return out
}

func (o *outbox) Subjects() []string {
	var subjects []string
	for _, n := range o.Messages() {
		subjects = append(subjects, n.Subject)
	}
	return subjects
}

type eventLog struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (l *eventLog) Record(_ context.Context, event accounts.ActivityEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *eventLog) Types() []accounts.ActivityEventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var types []accounts.ActivityEventType
	for _, e := range l.events {
		types = append(types, e.EventType)
	}
	return types
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type harness struct {
	db     *bun.DB
	repo   accounts.RepositoryManager
	mgr    *accounts.Manager
	clock  *fakeClock
	outbox *outbox
	events *eventLog
}

func newHarness(t *testing.T, opts ...accounts.ManagerOption) *harness {
	t.Helper()

	db := newTestDB(t)
	h := &harness{
		db:     db,
		repo:   accounts.NewRepositoryManager(db),
		clock:  newFakeClock(),
		outbox: &outbox{},
		events: &eventLog{},
	}

	base := []accounts.ManagerOption{
		accounts.WithClock(h.clock.Now),
		accounts.WithNotifier(h.outbox),
		accounts.WithActivitySink(h.events),
		accounts.WithLogger(nopLogger{}),
	}

	h.mgr = accounts.NewManager(h.repo, testConfig(), append(base, opts...)...)
	return h
}

func (h *harness) register(t *testing.T, name, username, email, password string) *accounts.Account {
	t.Helper()
	account, err := h.mgr.Register(context.Background(), accounts.RegisterAccountMessage{
		Name:     name,
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	require.NotNil(t, account)
	return account
}

func (h *harness) stored(t *testing.T, username string) *accounts.Account {
	t.Helper()
	account, err := h.repo.Accounts().FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return account
}
