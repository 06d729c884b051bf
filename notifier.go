package accounts

import (
	"context"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	defaultNotifierWorkers = 2
	defaultNotifierQueue   = 64
	defaultSendTimeout     = 30 * time.Second
)

// ErrNotifierClosed is returned by AsyncNotifier.Send after Close
var ErrNotifierClosed = goerrors.New("notifier is closed", goerrors.CategoryOperation)

// ErrNotifierQueueFull is returned when a notification is dropped
var ErrNotifierQueueFull = goerrors.New("notifier queue is full", goerrors.CategoryRateLimit)

type notificationJob struct {
	ctx          context.Context
	notification Notification
}

// AsyncNotifier hands notifications to a small worker pool and returns
// immediately. Delivery failures are logged and recorded, never retried.
type AsyncNotifier struct {
	next     Notifier
	queue    chan notificationJob
	workers  int
	timeout  time.Duration
	logger   Logger
	activity ActivitySink

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// AsyncNotifierOption configures an AsyncNotifier
type AsyncNotifierOption func(*AsyncNotifier)

// WithNotifierWorkers sets the number of delivery goroutines
func WithNotifierWorkers(n int) AsyncNotifierOption {
	return func(an *AsyncNotifier) {
		if n > 0 {
			an.workers = n
		}
	}
}

// WithNotifierQueueSize sets how many notifications may wait for a worker
func WithNotifierQueueSize(n int) AsyncNotifierOption {
	return func(an *AsyncNotifier) {
		if n > 0 {
			an.queue = make(chan notificationJob, n)
		}
	}
}

// WithNotifierTimeout bounds a single delivery attempt
func WithNotifierTimeout(d time.Duration) AsyncNotifierOption {
	return func(an *AsyncNotifier) {
		if d > 0 {
			an.timeout = d
		}
	}
}

// WithNotifierLogger overrides the logger
func WithNotifierLogger(logger Logger) AsyncNotifierOption {
	return func(an *AsyncNotifier) {
		if logger != nil {
			an.logger = logger
		}
	}
}

// WithNotifierActivitySink records delivery outcomes
func WithNotifierActivitySink(sink ActivitySink) AsyncNotifierOption {
	return func(an *AsyncNotifier) {
		an.activity = normalizeActivitySink(sink)
	}
}

// NewAsyncNotifier starts the workers delivering through next
func NewAsyncNotifier(next Notifier, opts ...AsyncNotifierOption) *AsyncNotifier {
	an := &AsyncNotifier{
		next:     next,
		queue:    make(chan notificationJob, defaultNotifierQueue),
		workers:  defaultNotifierWorkers,
		timeout:  defaultSendTimeout,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(an)
		}
	}

	for i := 0; i < an.workers; i++ {
		an.wg.Add(1)
		go an.run()
	}

	return an
}

// Send enqueues n. The request context is detached so delivery outlives
// the request that produced it.
func (an *AsyncNotifier) Send(ctx context.Context, n Notification) error {
	an.mu.RLock()
	defer an.mu.RUnlock()

	if an.closed {
		return ErrNotifierClosed
	}

	select {
	case an.queue <- notificationJob{ctx: context.WithoutCancel(ctx), notification: n}:
		return nil
	default:
		an.logger.Error("notification dropped, queue full", "to", n.To, "subject", n.Subject)
		return ErrNotifierQueueFull
	}
}

// Close stops accepting notifications and waits for queued ones to be
// delivered or for ctx to end.
func (an *AsyncNotifier) Close(ctx context.Context) error {
	an.mu.Lock()
	if !an.closed {
		an.closed = true
		close(an.queue)
	}
	an.mu.Unlock()

	done := make(chan struct{})
	go func() {
		an.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "notifier did not drain before shutdown")
	}
}

func (an *AsyncNotifier) run() {
	defer an.wg.Done()
	for job := range an.queue {
		an.deliver(job)
	}
}

func (an *AsyncNotifier) deliver(job notificationJob) {
	ctx, cancel := context.WithTimeout(job.ctx, an.timeout)
	defer cancel()

	event := ActivityEvent{
		EventType:  ActivityEventNotificationDelivered,
		OccurredAt: time.Now(),
		Metadata: map[string]any{
			"to":      job.notification.To,
			"subject": job.notification.Subject,
		},
	}

	if err := an.send(ctx, job.notification); err != nil {
		an.logger.Error("notification delivery failed",
			"to", job.notification.To,
			"subject", job.notification.Subject,
			"error", err,
		)
		event.EventType = ActivityEventNotificationFailed
		event.Metadata["error"] = err.Error()
	} else {
		an.logger.Debug("notification delivered", "to", job.notification.To, "subject", job.notification.Subject)
	}

	recordActivity(ctx, an.activity, an.logger, event)
}

// send turns a transport panic into a delivery error
func (an *AsyncNotifier) send(ctx context.Context, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = goerrors.New(fmt.Sprintf("notifier panic: %v", r), goerrors.CategoryInternal)
		}
	}()
	return an.next.Send(ctx, n)
}
