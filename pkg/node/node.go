// Package node implements the per-job state machine and its monitor
// goroutine. A node drives exactly one job from waiting to a terminal
// queue status, honoring retry and timeout policy, and invokes exactly one
// of the done/exit callbacks per terminal resolution.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/ensemble-queue/pkg/core"
	"github.com/jdziat/ensemble-queue/pkg/driver"
)

// DefaultPollInterval governs polling granularity and backend load. It is
// a tunable, not a correctness constant.
const DefaultPollInterval = time.Second

// killLogInterval throttles repeated kill-attempt logging. A backend may
// fail to honor kill requests for a long time, and one line per poll would
// flood the logs with identical statements.
const killLogInterval = 100

// Node owns one job's queue status, its monitor goroutine and the
// bookkeeping around retries and kills. The queue status and the thread
// status are orthogonal axes: the former reflects the job's real-world
// execution state, the latter whether this process currently has a live
// monitor for it.
type Node struct {
	id           string
	job          *core.JobDescriptor
	logger       *slog.Logger
	pollInterval time.Duration
	notify       func(core.Event)

	// Events are queued and handed to notify by a single drainer at a
	// time, so subscribers observe this node's events in issuance order.
	evMu     sync.Mutex
	pending  []core.Event
	draining bool

	mu             sync.Mutex
	status         core.JobStatus
	threadStatus   core.ThreadStatus
	submitAttempts int
	triedKilling   int
	timedOut       bool
	startTime      time.Time
	endTime        time.Time
	backendID      string
	err            error
	// monitorDone is closed when the current monitor goroutine exits.
	// A node owns at most one live monitor; Run waits for the previous
	// one before starting another.
	monitorDone chan struct{}
}

// Option configures a Node.
type Option func(*Node)

// WithLogger sets the node's logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Node) { n.logger = l }
}

// WithPollInterval overrides the monitor's poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(n *Node) { n.pollInterval = d }
}

// WithNotify registers a sink for node events. The sink must not block.
func WithNotify(fn func(core.Event)) Option {
	return func(n *Node) { n.notify = fn }
}

// New creates a node for the given descriptor. The descriptor is validated
// and must not be mutated afterwards.
func New(job *core.JobDescriptor, opts ...Option) (*Node, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	n := &Node{
		id:           uuid.New().String(),
		job:          job,
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
		status:       core.StatusWaiting,
		threadStatus: core.ThreadReady,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// ID returns the node's identifier.
func (n *Node) ID() string { return n.id }

// Job returns the node's descriptor.
func (n *Node) Job() *core.JobDescriptor { return n.job }

// Status returns the job's current queue status.
func (n *Node) Status() core.JobStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

// ThreadStatus returns the monitor goroutine's lifecycle state.
func (n *Node) ThreadStatus() core.ThreadStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.threadStatus
}

// SubmitAttempts returns how many times Submit has been called.
func (n *Node) SubmitAttempts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.submitAttempts
}

// TimedOut reports whether the job violated its max runtime.
func (n *Node) TimedOut() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.timedOut
}

// Err returns the monitor's unrecoverable internal error, if any.
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// IsRunning reports whether the job still needs monitoring.
func (n *Node) IsRunning() bool {
	return n.Status().IsRunning()
}

// Runtime returns elapsed wall-clock time since the job was first observed
// running: zero before that, frozen at the end time once terminal.
func (n *Node) Runtime() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.runtimeLocked()
}

func (n *Node) runtimeLocked() time.Duration {
	if n.startTime.IsZero() {
		return 0
	}
	if n.endTime.IsZero() {
		return time.Since(n.startTime)
	}
	return n.endTime.Sub(n.startTime)
}

// Submit hands the job to the driver. Every call counts as one submission
// attempt regardless of outcome.
func (n *Node) Submit(drv driver.Driver) core.SubmitStatus {
	n.mu.Lock()
	n.submitAttempts++
	attempt := n.submitAttempts
	n.mu.Unlock()

	result, backendID := drv.Submit(context.Background(), n.job)

	n.mu.Lock()
	if result == core.SubmitOK {
		n.backendID = backendID
		n.setStatusLocked(core.StatusSubmitted)
	}
	n.mu.Unlock()

	n.emit(&core.JobSubmitted{
		Name:      n.job.Name,
		RunPath:   n.job.RunPath,
		Attempt:   attempt,
		Result:    result,
		BackendID: backendID,
		Timestamp: time.Now(),
	})
	return result
}

// UpdateStatus polls the driver and applies the observed status. It is a
// no-op while the job is still waiting or has no backend id to query.
func (n *Node) UpdateStatus(drv driver.Driver) {
	n.mu.Lock()
	backendID := n.backendID
	waiting := n.status == core.StatusWaiting
	n.mu.Unlock()

	if waiting || backendID == "" {
		return
	}

	observed := drv.Status(context.Background(), backendID, n.job)

	n.mu.Lock()
	n.setStatusLocked(observed)
	n.mu.Unlock()
}

// setStatusLocked applies a status transition and queues a change event.
// Callers hold n.mu.
func (n *Node) setStatusLocked(to core.JobStatus) {
	from := n.status
	if from == to {
		return
	}
	n.status = to
	n.emit(&core.JobStatusChanged{
		Name:      n.job.Name,
		RunPath:   n.job.RunPath,
		From:      from,
		To:        to,
		Timestamp: time.Now(),
	})
}

// emit enqueues an event for asynchronous, in-order delivery. It never
// blocks and is safe to call with n.mu held: the drainer invokes notify
// without holding any node lock.
func (n *Node) emit(e core.Event) {
	if n.notify == nil {
		return
	}
	n.evMu.Lock()
	n.pending = append(n.pending, e)
	if !n.draining {
		n.draining = true
		go n.drainEvents()
	}
	n.evMu.Unlock()
}

func (n *Node) drainEvents() {
	for {
		n.evMu.Lock()
		if len(n.pending) == 0 {
			n.draining = false
			n.evMu.Unlock()
			return
		}
		e := n.pending[0]
		n.pending = n.pending[1:]
		n.evMu.Unlock()

		n.notify(e)
	}
}

// Run starts the monitor goroutine. It first waits for any previous
// monitor on this node to finish; a node never has two live monitors. If a
// stop was requested before starting, the node goes directly to thread
// done without submitting.
func (n *Node) Run(drv driver.Driver, callbackSema chan struct{}, maxSubmit int) {
	n.WaitFor()

	n.mu.Lock()
	if n.threadStatus == core.ThreadStopping {
		n.threadStatus = core.ThreadDone
		n.mu.Unlock()
		return
	}
	n.threadStatus = core.ThreadRunning
	n.startTime = time.Time{}
	n.endTime = time.Time{}
	done := make(chan struct{})
	n.monitorDone = done
	n.mu.Unlock()

	go func() {
		defer close(done)
		n.monitor(drv, callbackSema, maxSubmit)
	}()
}

// WaitFor blocks until the current monitor goroutine, if any, has exited.
func (n *Node) WaitFor() {
	n.mu.Lock()
	done := n.monitorDone
	n.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop requests cooperative cancellation. A running monitor will kill the
// job and exit; a node that never started (or was reset for a retry) is
// short-circuited to thread done and queue status failed, since there is
// no live process to cancel.
func (n *Node) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch n.threadStatus {
	case core.ThreadRunning:
		n.threadStatus = core.ThreadStopping
	case core.ThreadReady:
		n.threadStatus = core.ThreadDone
		n.setStatusLocked(core.StatusFailed)
	}
}

// monitor is the dedicated monitoring loop for one submission attempt.
func (n *Node) monitor(drv driver.Driver, callbackSema chan struct{}, maxSubmit int) {
	if n.Submit(drv) != core.SubmitOK {
		// Model a backend accepting a job that instantaneously fails
		// pre-execution: the terminal block below runs the done callback,
		// which will reject the result and trigger the normal retry path.
		n.mu.Lock()
		n.setStatusLocked(core.StatusDone)
		n.mu.Unlock()
	}

	n.UpdateStatus(drv)
	current := n.Status()

	for current.IsRunning() {
		n.mu.Lock()
		if n.startTime.IsZero() && current == core.StatusRunning {
			n.startTime = time.Now()
		}
		n.mu.Unlock()

		time.Sleep(n.pollInterval)
		n.UpdateStatus(drv)

		if n.shouldBeKilled() {
			n.kill(drv)
		}
		current = n.Status()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.endTime = time.Now()

	if current == core.StatusDone {
		callbackSema <- struct{}{}
		n.runDoneCallbackLocked()
		<-callbackSema
		if n.threadStatus == core.ThreadFailed {
			// The callback itself failed; its error is already recorded
			// and must not be reinterpreted as a status-machine violation.
			return
		}
	}

	// The callback may have reclassified the result; re-read.
	current = n.status
	switch current {
	case core.StatusSuccess:
		// Accepted; nothing further.
	case core.StatusExit:
		if n.submitAttempts < maxSubmit {
			// Loop back: the queue will re-submit on a later dispatch pass.
			n.threadStatus = core.ThreadReady
			return
		}
		n.setStatusLocked(core.StatusFailed)
		n.runExitCallbackLocked()
	case core.StatusIsKilled:
		// Accepted terminal state, not an error.
	case core.StatusFailed:
		n.runExitCallbackLocked()
	default:
		n.threadStatus = core.ThreadFailed
		n.err = fmt.Errorf("%w: %s", core.ErrUnexpectedStatus, current)
		n.logger.Error("unexpected job status after monitoring",
			"job", n.job.Name, "run_path", n.job.RunPath, "status", current)
		return
	}

	n.threadStatus = core.ThreadDone
	n.finishEventLocked()
}

// runDoneCallbackLocked runs the done callback under the node mutex and
// applies its verdict: true means success, false means exit. A
// validation-type callback error downgrades the job to failed; any other
// callback error is an unrecoverable monitor failure.
func (n *Node) runDoneCallbackLocked() {
	if n.job.DoneCallback == nil {
		n.setStatusLocked(core.StatusSuccess)
		return
	}
	ok, err := n.job.DoneCallback(n.job.CallbackArgs)
	if err != nil {
		var cbErr *core.CallbackError
		if errors.As(err, &cbErr) {
			n.setStatusLocked(core.StatusFailed)
			return
		}
		n.threadStatus = core.ThreadFailed
		n.err = err
		n.logger.Error("done callback failed",
			"job", n.job.Name, "run_path", n.job.RunPath, "error", err)
		return
	}
	if ok {
		n.setStatusLocked(core.StatusSuccess)
	} else {
		n.setStatusLocked(core.StatusExit)
	}
}

func (n *Node) runExitCallbackLocked() {
	if n.job.ExitCallback != nil {
		n.job.ExitCallback(n.job.CallbackArgs)
	}
}

func (n *Node) finishEventLocked() {
	n.emit(&core.JobFinished{
		Name:      n.job.Name,
		RunPath:   n.job.RunPath,
		Status:    n.status,
		Attempts:  n.submitAttempts,
		TimedOut:  n.timedOut,
		Runtime:   n.runtimeLocked(),
		Timestamp: time.Now(),
	})
}

// shouldBeKilled implements the kill policy: an external stop request, or
// a configured max runtime that has been reached.
func (n *Node) shouldBeKilled() bool {
	n.mu.Lock()
	stopping := n.threadStatus == core.ThreadStopping
	overran := n.job.MaxRuntime > 0 && n.runtimeLocked() >= n.job.MaxRuntime
	n.mu.Unlock()
	return stopping || overran
}

// kill asks the driver to cancel the job. Killing does not itself change
// the queue status; the result is discovered on the next poll. On a
// runtime violation the timed-out flag is set and the timeout callback is
// invoked; it may fire again on every iteration while the job remains
// unkillable.
func (n *Node) kill(drv driver.Driver) {
	n.mu.Lock()
	backendID := n.backendID
	n.triedKilling++
	tried := n.triedKilling
	overran := n.job.MaxRuntime > 0 && n.runtimeLocked() >= n.job.MaxRuntime
	n.mu.Unlock()

	if backendID != "" {
		drv.Kill(context.Background(), backendID)
	}

	if !overran {
		return
	}

	// We sometimes end up in a state where we are not able to kill the
	// job, so check before logging to avoid identical lines every poll.
	if tried == 1 {
		n.logger.Info("max runtime reached", "run_path", n.job.RunPath)
		n.emit(&core.JobKillAttempted{
			Name:      n.job.Name,
			RunPath:   n.job.RunPath,
			Attempts:  tried,
			TimedOut:  true,
			Timestamp: time.Now(),
		})
	} else if tried%killLogInterval == 0 {
		n.logger.Warn("kill attempts without success",
			"run_path", n.job.RunPath, "attempts", tried)
	}

	if n.job.TimeoutCallback != nil {
		n.job.TimeoutCallback(n.job.CallbackArgs)
	}

	n.mu.Lock()
	n.timedOut = true
	n.mu.Unlock()
}
