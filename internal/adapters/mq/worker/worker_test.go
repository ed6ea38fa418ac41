package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/cartola/internal/adapters/mq/queue"
	"github.com/okian/cartola/internal/adapters/mq/worker"
	"github.com/smartystreets/goconvey/convey"
)

type mockSender struct {
	mu       sync.Mutex
	texts    []string
	failures int
	calls    int
	block    chan struct{}
}

func (m *mockSender) Notify(ctx context.Context, text string) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("chat backend down")
	}
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockSender) delivered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

func (m *mockSender) attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		sender := &mockSender{}
		ctx := context.Background()

		convey.Convey("When a message is queued", func() {
			w := worker.NewInMemoryWorker(q, sender, worker.WithName("test-worker"))
			go w.Run(ctx)
			convey.So(q.Enqueue(ctx, queue.NewMessage("Mercado aberto")), convey.ShouldBeNil)

			convey.Convey("Then it is delivered", func() {
				convey.So(waitFor(func() bool { return len(sender.delivered()) == 1 }), convey.ShouldBeTrue)
				convey.So(sender.delivered()[0], convey.ShouldEqual, "Mercado aberto")
			})

			convey.Convey("And the worker stops once the queue is closed", func() {
				_ = q.Close()
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})

		convey.Convey("When the sender fails transiently", func() {
			sender.failures = 2
			w := worker.NewInMemoryWorker(q, sender, worker.WithRetries(2, time.Millisecond))
			go w.Run(ctx)
			_ = q.Enqueue(ctx, queue.NewMessage("retry me"))

			convey.Convey("Then the delivery is retried", func() {
				convey.So(waitFor(func() bool { return len(sender.delivered()) == 1 }), convey.ShouldBeTrue)
				convey.So(sender.attempts(), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the sender keeps failing", func() {
			sender.failures = 10
			w := worker.NewInMemoryWorker(q, sender, worker.WithRetries(1, time.Millisecond))
			go w.Run(ctx)
			_ = q.Enqueue(ctx, queue.NewMessage("lost"))
			_ = q.Enqueue(ctx, queue.NewMessage("also lost"))

			convey.Convey("Then the worker gives up and moves on", func() {
				convey.So(waitFor(func() bool { return sender.attempts() == 4 }), convey.ShouldBeTrue)
				convey.So(sender.delivered(), convey.ShouldBeEmpty)
			})
		})
	})
}

func TestOutbox(t *testing.T) {
	convey.Convey("Given an outbox with two workers", t, func() {
		sender := &mockSender{}
		outbox := worker.NewOutbox(sender, 2, 4, worker.WithRetries(0, time.Millisecond))
		ctx := context.Background()
		outbox.Start(ctx)

		convey.Convey("When notifications are sent", func() {
			convey.So(outbox.Notify(ctx, "a"), convey.ShouldBeNil)
			convey.So(outbox.Notify(ctx, "b"), convey.ShouldBeNil)

			convey.Convey("Then Shutdown drains them", func() {
				shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
				defer cancel()
				convey.So(outbox.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(sender.delivered(), convey.ShouldHaveLength, 2)
				convey.So(outbox.Backlog(), convey.ShouldEqual, 0)
			})

			convey.Convey("And later notifications are rejected", func() {
				_ = outbox.Shutdown(ctx)
				convey.So(errors.Is(outbox.Notify(ctx, "c"), queue.ErrClosed), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given an outbox whose sender hangs", t, func() {
		sender := &mockSender{block: make(chan struct{})}
		outbox := worker.NewOutbox(sender, 1, 1, worker.WithRetries(0, time.Millisecond))
		ctx := context.Background()
		outbox.Start(ctx)

		convey.Convey("When the backlog exceeds capacity", func() {
			_ = outbox.Notify(ctx, "in flight")
			waitFor(func() bool { return outbox.Backlog() == 0 })
			convey.So(outbox.Notify(ctx, "queued"), convey.ShouldBeNil)
			err := outbox.Notify(ctx, "dropped")

			convey.Convey("Then Notify fails fast and Shutdown times out", func() {
				convey.So(errors.Is(err, queue.ErrFull), convey.ShouldBeTrue)
				shutdownCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
				defer cancel()
				convey.So(outbox.Shutdown(shutdownCtx), convey.ShouldNotBeNil)
				close(sender.block)
			})
		})
	})
}
