// Package worker delivers queued market notifications in the background.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/cartola/internal/adapters/mq/queue"
	"github.com/okian/cartola/pkg/logger"
	"github.com/okian/cartola/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkers        = 1
	defaultRetries        = 2
	defaultBackoff        = 500 * time.Millisecond
	defaultAttemptTimeout = 10 * time.Second
)

// Sender delivers one notification text.
type Sender interface {
	Notify(ctx context.Context, text string) error
}

// Queue defines how workers receive messages.
type Queue interface {
	Dequeue() <-chan queue.Message
}

// InMemoryWorker delivers messages read from a queue.
type InMemoryWorker struct {
	queue   Queue
	sender  Sender
	name    string
	retries int
	backoff time.Duration
	timeout time.Duration

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, sender Sender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   q,
		sender:  sender,
		name:    "worker",
		retries: defaultRetries,
		backoff: defaultBackoff,
		timeout: defaultAttemptTimeout,
		done:    make(chan struct{}),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run delivers messages until the queue is drained and closed or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	messages := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-messages:
			if !ok {
				return
			}
			if err := w.deliver(ctx, m); err != nil {
				w.logger.Error(ctx, "notification delivery failed",
					logger.String("message_id", m.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) deliver(ctx context.Context, m queue.Message) error {
	start := time.Now()
	defer func() {
		metrics.RecordNotificationDelivery(float64(time.Since(start).Milliseconds()))
	}()

	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.backoff << (attempt - 1)):
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, w.timeout)
		err = w.sender.Notify(attemptCtx, m.Text)
		cancel()
		if err == nil {
			metrics.RecordNotification("delivered")
			w.logger.Debug(ctx, "notification delivered",
				logger.String("message_id", m.ID),
				logger.Int("attempts", attempt+1),
				logger.Duration("queued_for", start.Sub(m.CreatedAt)),
			)
			return nil
		}
	}
	metrics.RecordNotification("failed")
	metrics.RecordErrorByComponent("outbox", "delivery_failed")
	return fmt.Errorf("deliver %s after %d attempts: %w", m.ID, w.retries+1, err)
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	cancel  context.CancelFunc
	once    sync.Once
	logger  logger.Logger
}

// NewPool creates workerCount workers sharing q and sender.
func NewPool(workerCount int, q Queue, sender Sender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkers
	}
	scratch := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(scratch)
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		cancel:  func() {},
		logger:  scratch.logger.Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, sender, wopts...)
	}
	return p
}

// Start launches the workers. They outlive ctx cancellation so queued
// messages can still drain during Shutdown.
func (p *Pool) Start(ctx context.Context) {
	p.once.Do(func() {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		p.cancel = cancel
		for _, w := range p.workers {
			go w.Run(runCtx)
		}
	})
}

// Wait blocks until every worker returned or ctx ends, then aborts any
// delivery still in flight.
func (p *Pool) Wait(ctx context.Context) error {
	defer p.cancel()
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}

// Outbox queues notifications and delivers them through a pool, so Notify
// returns as soon as the message is accepted.
type Outbox struct {
	queue *queue.InMemoryQueue
	pool  *Pool
}

// NewOutbox creates an outbox in front of sender.
func NewOutbox(sender Sender, workers, capacity int, opts ...Option) *Outbox {
	q := queue.NewInMemoryQueue(queue.WithCapacity(capacity))
	return &Outbox{queue: q, pool: NewPool(workers, q, sender, opts...)}
}

// Start launches the delivery workers.
func (o *Outbox) Start(ctx context.Context) {
	o.pool.Start(ctx)
}

// Notify enqueues text; it fails with queue.ErrFull or queue.ErrClosed.
func (o *Outbox) Notify(ctx context.Context, text string) error {
	return o.queue.Enqueue(ctx, queue.NewMessage(text))
}

// Backlog returns the number of undelivered messages.
func (o *Outbox) Backlog() int {
	return o.queue.Len()
}

// Shutdown stops accepting messages and waits for the backlog to drain.
func (o *Outbox) Shutdown(ctx context.Context) error {
	_ = o.queue.Close()
	return o.pool.Wait(ctx)
}
