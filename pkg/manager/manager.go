// Package manager orchestrates a job queue's lifecycle end to end: it
// drives dispatch passes to completion, evaluates optional early-stop
// predicates between passes, and exposes aggregate counters upward.
package manager

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jdziat/ensemble-queue/pkg/core"
	"github.com/jdziat/ensemble-queue/pkg/queue"
)

// DefaultDispatchPeriod is the sleep between dispatch passes.
const DefaultDispatchPeriod = time.Second

// Manager drives a JobQueue until every node reaches a terminal worker
// state, or until an explicit Stop.
type Manager struct {
	queue          *queue.JobQueue
	evaluators     []func()
	dispatchPeriod time.Duration
	logger         *slog.Logger
	running        atomic.Bool
}

// Option modifies a Manager.
type Option func(*Manager)

// WithDispatchPeriod overrides the sleep between dispatch passes.
func WithDispatchPeriod(d time.Duration) Option {
	return func(m *Manager) { m.dispatchPeriod = d }
}

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithEvaluator adds an early-stop predicate evaluated on every dispatch
// pass, e.g. JobQueue.StopLongRunningJobs.
func WithEvaluator(fn func()) Option {
	return func(m *Manager) { m.evaluators = append(m.evaluators, fn) }
}

// New creates a manager for the given queue.
func New(q *queue.JobQueue, opts ...Option) *Manager {
	m := &Manager{
		queue:          q,
		dispatchPeriod: DefaultDispatchPeriod,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Queue returns the managed queue.
func (m *Manager) Queue() *queue.JobQueue { return m.queue }

// IsRunning reports whether Execute is currently driving the queue.
func (m *Manager) IsRunning() bool { return m.running.Load() }

// Counts returns the queue's current aggregate counts.
func (m *Manager) Counts() queue.Counts { return m.queue.Counts() }

// Status returns the queue status of the job at the given index.
func (m *Manager) Status(index int) (core.JobStatus, error) {
	nd, err := m.queue.Node(index)
	if err != nil {
		return "", err
	}
	return nd.Status(), nil
}

// Execute drives the queue to completion: repeated dispatch passes with
// the evaluators run between them, sleeping the dispatch period in
// between. It blocks until all monitors are done. Cancelling the context
// stops the queue synchronously. The returned error is the context's
// error, or the first unrecoverable monitor error.
func (m *Manager) Execute(ctx context.Context) error {
	m.running.Store(true)
	defer m.running.Store(false)

	for m.queue.IsActive() {
		select {
		case <-ctx.Done():
			m.logger.Info("queue execution cancelled, stopping jobs")
			m.Stop()
			return ctx.Err()
		default:
		}

		for _, evaluate := range m.evaluators {
			evaluate()
		}
		m.queue.LaunchEligible()

		select {
		case <-ctx.Done():
		case <-time.After(m.dispatchPeriod):
		}
	}

	m.queue.WaitAll()
	return m.queue.Err()
}

// Stop requests cooperative cancellation on every node and blocks until
// all monitor goroutines have finished, so that shutdown is synchronous
// and no process resources linger. Nodes that were retried back to ready
// in the meantime are stopped on the next sweep.
func (m *Manager) Stop() {
	m.queue.HaltSubmissions()
	for !m.queue.AllDone() {
		m.queue.StopAll()
		m.queue.WaitAll()
	}
}
