// Package queue implements the job queue: the ordered collection of job
// nodes, the concurrency budget, and the dispatch pass that advances
// eligible nodes from waiting to active as capacity allows.
package queue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/ensemble-queue/pkg/core"
	"github.com/jdziat/ensemble-queue/pkg/driver"
	"github.com/jdziat/ensemble-queue/pkg/node"
)

// Defaults for the queue's budgets.
const (
	DefaultMaxSubmit           = 2
	DefaultCallbackConcurrency = 10
)

// longRunningFactor is the multiple of the average finished runtime beyond
// which StopLongRunningJobs kills a still-running job.
const longRunningFactor = 1.25

// JobQueue owns all nodes in submission order, a cap on simultaneously
// submitted jobs, and the shared limiter bounding how many done callbacks
// run at once (they may do heavy I/O and must not all run together).
type JobQueue struct {
	driver       driver.Driver
	maxSubmit    int
	maxRunning   int
	callbackSema chan struct{}
	pollInterval time.Duration
	logger       *slog.Logger

	mu       sync.RWMutex
	nodes    []*node.Node
	halted   bool
	onFinish []func(*node.Node, *core.JobFinished)

	eventSubs []chan core.Event
}

// Option modifies a JobQueue.
type Option func(*JobQueue)

// MaxSubmit bounds submission attempts per job, including the first.
func MaxSubmit(n int) Option {
	return func(q *JobQueue) { q.maxSubmit = n }
}

// MaxRunning caps simultaneously submitted jobs. Zero means unbounded.
func MaxRunning(n int) Option {
	return func(q *JobQueue) { q.maxRunning = n }
}

// CallbackConcurrency bounds concurrently executing done callbacks across
// the whole queue.
func CallbackConcurrency(n int) Option {
	return func(q *JobQueue) {
		if n < 1 {
			n = 1
		}
		q.callbackSema = make(chan struct{}, n)
	}
}

// PollInterval sets the poll interval handed to each node's monitor.
func PollInterval(d time.Duration) Option {
	return func(q *JobQueue) { q.pollInterval = d }
}

// WithLogger sets the queue's logger, also inherited by its nodes.
func WithLogger(l *slog.Logger) Option {
	return func(q *JobQueue) { q.logger = l }
}

// New creates a queue that submits through the given driver.
func New(drv driver.Driver, opts ...Option) *JobQueue {
	q := &JobQueue{
		driver:       drv,
		maxSubmit:    DefaultMaxSubmit,
		callbackSema: make(chan struct{}, DefaultCallbackConcurrency),
		pollInterval: node.DefaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Driver returns the queue's backend driver.
func (q *JobQueue) Driver() driver.Driver { return q.driver }

// MaxSubmitAttempts returns the per-job submission bound.
func (q *JobQueue) MaxSubmitAttempts() int { return q.maxSubmit }

// Add appends a job in submission order and returns its queue index.
// Insertion order is submission priority; there is no other scheduling.
func (q *JobQueue) Add(job *core.JobDescriptor) (int, error) {
	var nd *node.Node
	notify := func(e core.Event) {
		q.Emit(e)
		if finished, ok := e.(*core.JobFinished); ok {
			q.callFinishHooks(nd, finished)
		}
	}

	nd, err := node.New(job,
		node.WithLogger(q.logger),
		node.WithPollInterval(q.pollInterval),
		node.WithNotify(notify),
	)
	if err != nil {
		return 0, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.halted {
		return 0, core.ErrQueueStarted
	}
	q.nodes = append(q.nodes, nd)
	return len(q.nodes) - 1, nil
}

// Node returns the node at the given queue index.
func (q *JobQueue) Node(index int) (*node.Node, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if index < 0 || index >= len(q.nodes) {
		return nil, core.ErrNoSuchJob
	}
	return q.nodes[index], nil
}

// Len returns the number of jobs in the queue.
func (q *JobQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.nodes)
}

func (q *JobQueue) snapshot() []*node.Node {
	q.mu.RLock()
	defer q.mu.RUnlock()
	nodes := make([]*node.Node, len(q.nodes))
	copy(nodes, q.nodes)
	return nodes
}

// Active counts nodes with a live monitor, i.e. submitted but not yet
// terminal.
func (q *JobQueue) Active() int {
	active := 0
	for _, nd := range q.snapshot() {
		switch nd.ThreadStatus() {
		case core.ThreadRunning, core.ThreadStopping:
			active++
		}
	}
	return active
}

// LaunchEligible performs one dispatch pass: scan nodes in submission
// order and start monitors for fresh or retry-eligible nodes while the
// concurrency budget allows. Returns how many monitors were started.
func (q *JobQueue) LaunchEligible() int {
	if q.isHalted() {
		return 0
	}

	active := q.Active()
	launched := 0
	for _, nd := range q.snapshot() {
		if q.maxRunning > 0 && active >= q.maxRunning {
			break
		}
		if !eligible(nd) {
			continue
		}
		nd.Run(q.driver, q.callbackSema, q.maxSubmit)
		active++
		launched++
	}
	return launched
}

// eligible reports whether a node should be started on this pass: either
// fresh (waiting) or looped back for a retry.
func eligible(nd *node.Node) bool {
	if nd.ThreadStatus() != core.ThreadReady {
		return false
	}
	switch nd.Status() {
	case core.StatusWaiting, core.StatusExit:
		return true
	}
	return false
}

// IsActive reports whether any node still needs driving: a live monitor,
// or an unlaunched node that is still allowed to launch.
func (q *JobQueue) IsActive() bool {
	halted := q.isHalted()
	for _, nd := range q.snapshot() {
		switch nd.ThreadStatus() {
		case core.ThreadRunning, core.ThreadStopping:
			return true
		case core.ThreadReady:
			if !halted {
				return true
			}
		}
	}
	return false
}

// AllDone reports whether every node's monitor has reached a terminal
// thread status.
func (q *JobQueue) AllDone() bool {
	for _, nd := range q.snapshot() {
		switch nd.ThreadStatus() {
		case core.ThreadDone, core.ThreadFailed:
		default:
			return false
		}
	}
	return true
}

// HaltSubmissions stops all future launches. Remaining waiting nodes are
// left as-is for the caller to interpret as not-run; in-flight jobs finish
// normally.
func (q *JobQueue) HaltSubmissions() {
	q.mu.Lock()
	q.halted = true
	q.mu.Unlock()
}

func (q *JobQueue) isHalted() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.halted
}

// StopAll requests cooperative cancellation on every node.
func (q *JobQueue) StopAll() {
	for _, nd := range q.snapshot() {
		nd.Stop()
	}
}

// WaitAll joins every live monitor goroutine.
func (q *JobQueue) WaitAll() {
	for _, nd := range q.snapshot() {
		nd.WaitFor()
	}
}

// Err returns the first unrecoverable monitor error, if any.
func (q *JobQueue) Err() error {
	for _, nd := range q.snapshot() {
		if err := nd.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Counts is a point-in-time aggregate of node statuses. It is computed by
// scanning nodes on demand; there is no separately maintained counter that
// could drift from per-node state.
type Counts struct {
	Waiting int
	Pending int
	Running int
	Success int
	Failed  int
	Killed  int
}

// Finished returns how many jobs reached a terminal status.
func (c Counts) Finished() int {
	return c.Success + c.Failed + c.Killed
}

// Counts scans all nodes and aggregates their queue statuses. Submitted
// counts as pending; unknown and done count as running (a done job is
// still owned by a live monitor until its callback resolves it).
func (q *JobQueue) Counts() Counts {
	var c Counts
	for _, nd := range q.snapshot() {
		switch nd.Status() {
		case core.StatusWaiting:
			c.Waiting++
		case core.StatusSubmitted, core.StatusPending:
			c.Pending++
		case core.StatusRunning, core.StatusUnknown, core.StatusDone, core.StatusExit:
			c.Running++
		case core.StatusSuccess:
			c.Success++
		case core.StatusFailed:
			c.Failed++
		case core.StatusIsKilled:
			c.Killed++
		}
	}
	return c
}

// CountStatus returns how many nodes currently hold the given status.
func (q *JobQueue) CountStatus(status core.JobStatus) int {
	count := 0
	for _, nd := range q.snapshot() {
		if nd.Status() == status {
			count++
		}
	}
	return count
}

// StopLongRunningJobs returns an evaluator that, once at least
// minRealizations jobs have finished, stops every job whose runtime
// exceeds the long-running factor times the average finished runtime.
func (q *JobQueue) StopLongRunningJobs(minRealizations int) func() {
	return func() {
		finished := 0
		var total time.Duration
		nodes := q.snapshot()
		for _, nd := range nodes {
			if nd.Status().Terminal() {
				finished++
				total += nd.Runtime()
			}
		}
		if minRealizations <= 0 || finished < minRealizations {
			return
		}
		limit := time.Duration(longRunningFactor * float64(total) / float64(finished))
		for _, nd := range nodes {
			if nd.Status() == core.StatusRunning && nd.Runtime() > limit {
				q.logger.Info("stopping long running job",
					"job", nd.Job().Name, "runtime", nd.Runtime(), "limit", limit)
				nd.Stop()
			}
		}
	}
}

// OnFinish registers a hook invoked whenever a node reaches a terminal
// thread status.
func (q *JobQueue) OnFinish(fn func(*node.Node, *core.JobFinished)) {
	q.mu.Lock()
	q.onFinish = append(q.onFinish, fn)
	q.mu.Unlock()
}

func (q *JobQueue) callFinishHooks(nd *node.Node, e *core.JobFinished) {
	q.mu.RLock()
	hooks := make([]func(*node.Node, *core.JobFinished), len(q.onFinish))
	copy(hooks, q.onFinish)
	q.mu.RUnlock()

	for _, fn := range hooks {
		fn(nd, e)
	}
}

// Events returns a channel for receiving queue events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (q *JobQueue) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	q.mu.Lock()
	q.eventSubs = append(q.eventSubs, ch)
	q.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed — callers must stop reading before calling
// Unsubscribe. After Unsubscribe returns, no further events are sent.
func (q *JobQueue) Unsubscribe(ch <-chan core.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, sub := range q.eventSubs {
		if sub == ch {
			q.eventSubs = append(q.eventSubs[:i], q.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit emits an event to all subscribers.
func (q *JobQueue) Emit(e core.Event) {
	q.mu.RLock()
	subs := make([]chan core.Event, len(q.eventSubs))
	copy(subs, q.eventSubs)
	q.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop if full - this prevents blocking on slow consumers
		}
	}
}
