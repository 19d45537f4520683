package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
)

const defaultSendTimeout = 15 * time.Second

// Notifier queues messages on a fixed-size worker pool so callers never wait
// on the mail provider. Failures are logged and otherwise dropped; there are
// no retries.
type Notifier struct {
	sender  Sender
	pool    *workerpool.WorkerPool
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// NewNotifier starts a pool of workers goroutines. A nil sender disables
// delivery: Notify only logs that email is not configured.
func NewNotifier(sender Sender, workers int, logger *slog.Logger) *Notifier {
	if workers < 1 {
		workers = 1
	}
	return &Notifier{
		sender:  sender,
		pool:    workerpool.New(workers),
		timeout: defaultSendTimeout,
		logger:  logger,
	}
}

// Configured reports whether messages are actually delivered.
func (n *Notifier) Configured() bool {
	return n.sender != nil
}

// Notify queues msg and returns immediately. The send runs with its own
// timeout, detached from any request context.
func (n *Notifier) Notify(msg Message) {
	if n.sender == nil {
		n.logger.Info("Email not configured, skipping notification",
			slog.String("subject", msg.Subject),
		)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		n.logger.Warn("notifier closed, dropping email", slog.String("subject", msg.Subject))
		return
	}

	n.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.sender.Send(ctx, msg); err != nil {
			n.logger.Error("failed to send email",
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()),
			)
			return
		}
		n.logger.Info("email sent", slog.String("subject", msg.Subject))
	})
}

// Close waits for queued messages to finish. Later Notify calls are dropped.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	n.stopped = true
	n.mu.Unlock()

	n.pool.StopWait()
}
