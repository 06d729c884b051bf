package accounts_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-accounts"
)

func TestAsyncNotifier_DeliversAndDrains(t *testing.T) {
	box := &outbox{}
	events := &eventLog{}
	an := accounts.NewAsyncNotifier(box,
		accounts.WithNotifierWorkers(3),
		accounts.WithNotifierLogger(nopLogger{}),
		accounts.WithNotifierActivitySink(events),
	)

	for i := 0; i < 10; i++ {
		require.NoError(t, an.Send(context.Background(), accounts.Notification{To: "alice@x.com", Subject: "hi"}))
	}

	require.NoError(t, an.Close(context.Background()))
	assert.Len(t, box.Messages(), 10)
	assert.Len(t, events.Types(), 10)
	assert.Equal(t, accounts.ActivityEventNotificationDelivered, events.Types()[0])

	err := an.Send(context.Background(), accounts.Notification{To: "alice@x.com"})
	assert.ErrorIs(t, err, accounts.ErrNotifierClosed)

	// closing twice is fine
	assert.NoError(t, an.Close(context.Background()))
}

func TestAsyncNotifier_DetachesRequestContext(t *testing.T) {
	delivered := make(chan error, 1)
	an := accounts.NewAsyncNotifier(accounts.NotifierFunc(func(ctx context.Context, n accounts.Notification) error {
		delivered <- ctx.Err()
		return nil
	}), accounts.WithNotifierLogger(nopLogger{}))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, an.Send(ctx, accounts.Notification{To: "alice@x.com"}))
	cancel()

	require.NoError(t, an.Close(context.Background()))
	assert.NoError(t, <-delivered)
}

func TestAsyncNotifier_FailureIsRecorded(t *testing.T) {
	events := &eventLog{}
	an := accounts.NewAsyncNotifier(accounts.NotifierFunc(func(context.Context, accounts.Notification) error {
		return errors.New("smtp: 550 mailbox unavailable")
	}),
		accounts.WithNotifierLogger(nopLogger{}),
		accounts.WithNotifierActivitySink(events),
	)

	require.NoError(t, an.Send(context.Background(), accounts.Notification{To: "alice@x.com"}))
	require.NoError(t, an.Close(context.Background()))

	assert.Equal(t, []accounts.ActivityEventType{accounts.ActivityEventNotificationFailed}, events.Types())
}

func TestAsyncNotifier_RecoversPanics(t *testing.T) {
	events := &eventLog{}
	var mu sync.Mutex
	calls := 0
	an := accounts.NewAsyncNotifier(accounts.NotifierFunc(func(context.Context, accounts.Notification) error {
		mu.Lock()
		calls++
		mu.Unlock()
		panic("transport bug")
	}),
		accounts.WithNotifierWorkers(1),
		accounts.WithNotifierLogger(nopLogger{}),
		accounts.WithNotifierActivitySink(events),
	)

	require.NoError(t, an.Send(context.Background(), accounts.Notification{To: "a@x.com"}))
	require.NoError(t, an.Send(context.Background(), accounts.Notification{To: "b@x.com"}))
	require.NoError(t, an.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)

	assert.Equal(t, []accounts.ActivityEventType{
		accounts.ActivityEventNotificationFailed,
		accounts.ActivityEventNotificationFailed,
	}, events.Types())

	events.mu.Lock()
	defer events.mu.Unlock()
	assert.Equal(t, "a@x.com", events.events[0].Metadata["to"])
	assert.Contains(t, events.events[0].Metadata["error"], "transport bug")
}

func TestAsyncNotifier_QueueFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	an := accounts.NewAsyncNotifier(accounts.NotifierFunc(func(context.Context, accounts.Notification) error {
		started <- struct{}{}
		<-release
		return nil
	}),
		accounts.WithNotifierWorkers(1),
		accounts.WithNotifierQueueSize(1),
		accounts.WithNotifierLogger(nopLogger{}),
	)

	require.NoError(t, an.Send(context.Background(), accounts.Notification{To: "a@x.com"}))
	<-started

	require.NoError(t, an.Send(context.Background(), accounts.Notification{To: "b@x.com"}))
	err := an.Send(context.Background(), accounts.Notification{To: "c@x.com"})
	assert.ErrorIs(t, err, accounts.ErrNotifierQueueFull)

	close(release)
	<-started
	require.NoError(t, an.Close(context.Background()))
}

func TestAsyncNotifier_CloseTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	an := accounts.NewAsyncNotifier(accounts.NotifierFunc(func(context.Context, accounts.Notification) error {
		<-release
		return nil
	}), accounts.WithNotifierWorkers(1), accounts.WithNotifierLogger(nopLogger{}))

	require.NoError(t, an.Send(context.Background(), accounts.Notification{To: "a@x.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, an.Close(ctx))
}

func TestManagerWithAsyncNotifier(t *testing.T) {
	box := &outbox{}
	an := accounts.NewAsyncNotifier(box, accounts.WithNotifierLogger(nopLogger{}))
	h := newHarness(t, accounts.WithNotifier(an))

	h.register(t, "Alice", "alice", "alice@x.com", "pw123456")
	require.NoError(t, an.Close(context.Background()))

	sent := box.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, accounts.SubjectVerifyAccount, sent[0].Subject)
}
