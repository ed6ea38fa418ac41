// Package queue buffers outgoing market notifications.
//
// The queue is bounded and never blocks the caller: a full or closed queue
// rejects the message so a slow chat backend cannot stall a derivation cycle.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/cartola/pkg/metrics"
)

const defaultCapacity = 64

// Message is one notification waiting for delivery.
type Message struct {
	ID        string
	Text      string
	CreatedAt time.Time
}

// NewMessage stamps text with an id and the current time.
func NewMessage(text string) Message {
	return Message{ID: uuid.NewString(), Text: text, CreatedAt: time.Now()}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a message. It returns ErrFull or ErrClosed when the
	// message was not accepted.
	Enqueue(ctx context.Context, m Message) error

	// Dequeue returns the delivery channel. It is closed after Close once
	// the remaining messages are drained.
	Dequeue() <-chan Message

	// Len returns the number of waiting messages.
	Len() int

	// Close stops accepting messages.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	messages chan Message
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.messages = make(chan Message, q.capacity)
	metrics.UpdateNotificationBacklog(0)
	return q
}

// Enqueue adds a message to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordNotification("dropped")
		metrics.RecordErrorByComponent("outbox", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.messages <- m:
		metrics.RecordNotification("queued")
		metrics.UpdateNotificationBacklog(len(q.messages))
		return nil
	default:
		metrics.RecordNotification("dropped")
		metrics.RecordErrorByComponent("outbox", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the channel consumers read from.
func (q *InMemoryQueue) Dequeue() <-chan Message {
	return q.messages
}

// Len returns the current number of queued messages.
func (q *InMemoryQueue) Len() int {
	n := len(q.messages)
	metrics.UpdateNotificationBacklog(n)
	return n
}

// Close stops accepting messages. Queued messages stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.messages)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
