// Package jobqueue provides a concurrent job queue for ensemble
// realizations, submitting each job to a cluster or local execution
// backend, monitoring it to completion and retrying or killing it under
// well-defined conditions.
//
// This is the main package users should import. It re-exports all public
// types from the internal pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// Create a driver and a queue
//	drv, _ := jobqueue.NewDriver(jobqueue.Local)
//	q := jobqueue.NewQueue(drv, jobqueue.MaxRunning(10))
//
//	// Add one job per realization
//	q.Add(&jobqueue.JobDescriptor{
//	    Name:       "realization-0",
//	    Executable: "job_dispatch.py",
//	    RunPath:    "/scratch/case/realization-0",
//	    OKFile:     "OK",
//	    ExitFile:   "ERROR",
//	})
//
//	// Drive to completion
//	mgr := jobqueue.NewManager(q)
//	mgr.Execute(ctx)
package jobqueue

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/ensemble-queue/pkg/config"
	"github.com/jdziat/ensemble-queue/pkg/core"
	"github.com/jdziat/ensemble-queue/pkg/driver"
	"github.com/jdziat/ensemble-queue/pkg/journal"
	"github.com/jdziat/ensemble-queue/pkg/manager"
	"github.com/jdziat/ensemble-queue/pkg/node"
	"github.com/jdziat/ensemble-queue/pkg/queue"
)

// Type aliases re-exporting the public surface
type (
	// JobDescriptor is the immutable per-realization job input.
	JobDescriptor = core.JobDescriptor

	// JobStatus is the externally meaningful execution state of a job.
	JobStatus = core.JobStatus

	// ThreadStatus is the monitor goroutine's lifecycle state.
	ThreadStatus = core.ThreadStatus

	// SubmitStatus is the result of one submission attempt.
	SubmitStatus = core.SubmitStatus

	// CallbackError marks a validation-type done-callback failure.
	CallbackError = core.CallbackError

	// Event is the interface for all queue events.
	Event = core.Event

	// JobSubmitted is emitted when a submission attempt completes.
	JobSubmitted = core.JobSubmitted

	// JobStatusChanged is emitted when a poll observes a new status.
	JobStatusChanged = core.JobStatusChanged

	// JobKillAttempted is emitted when the kill policy fires.
	JobKillAttempted = core.JobKillAttempted

	// JobFinished is emitted when a node reaches a terminal thread status.
	JobFinished = core.JobFinished

	// Driver is the backend adapter interface.
	Driver = driver.Driver

	// Kind identifies a backend.
	Kind = driver.Kind

	// Commands holds the backend command names for one kind.
	Commands = driver.Commands

	// Node is the per-job state machine and its monitor.
	Node = node.Node

	// Queue owns the nodes and the concurrency budget.
	Queue = queue.JobQueue

	// Counts is a point-in-time aggregate of node statuses.
	Counts = queue.Counts

	// Manager drives a queue's lifecycle end to end.
	Manager = manager.Manager

	// Config holds the file configuration.
	Config = config.Config

	// Journal persists terminal outcomes per realization.
	Journal = journal.Journal

	// JournalRecord is one persisted terminal outcome.
	JournalRecord = journal.Record
)

// Queue status constants
const (
	StatusWaiting   = core.StatusWaiting
	StatusSubmitted = core.StatusSubmitted
	StatusPending   = core.StatusPending
	StatusRunning   = core.StatusRunning
	StatusDone      = core.StatusDone
	StatusExit      = core.StatusExit
	StatusSuccess   = core.StatusSuccess
	StatusFailed    = core.StatusFailed
	StatusIsKilled  = core.StatusIsKilled
	StatusUnknown   = core.StatusUnknown
)

// Thread status constants
const (
	ThreadReady    = core.ThreadReady
	ThreadRunning  = core.ThreadRunning
	ThreadStopping = core.ThreadStopping
	ThreadDone     = core.ThreadDone
	ThreadFailed   = core.ThreadFailed
)

// Submit status constants
const (
	SubmitOK         = core.SubmitOK
	SubmitDriverFail = core.SubmitDriverFail
)

// Backend kinds
const (
	Local  = driver.Local
	LSF    = driver.LSF
	Slurm  = driver.Slurm
	Torque = driver.Torque
)

// NewDriver creates a driver for the given backend kind.
func NewDriver(kind Kind, opts ...driver.Option) (Driver, error) {
	return driver.New(kind, opts...)
}

// NewQueue creates a queue that submits through the given driver.
func NewQueue(drv Driver, opts ...queue.Option) *Queue {
	return queue.New(drv, opts...)
}

// NewManager creates a manager for the given queue.
func NewManager(q *Queue, opts ...manager.Option) *Manager {
	return manager.New(q, opts...)
}

// LoadConfig reads a yaml config file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// CallbackFailure wraps an error as a validation-type callback failure.
func CallbackFailure(err error) error {
	return core.CallbackFailure(err)
}

// Driver option functions

// WithCommands overrides the backend command names.
func WithCommands(c Commands) driver.Option {
	return driver.WithCommands(c)
}

// WithCommandTimeout bounds each backend CLI invocation.
func WithCommandTimeout(d time.Duration) driver.Option {
	return driver.WithCommandTimeout(d)
}

// Queue option functions

// MaxSubmit bounds submission attempts per job, including the first.
func MaxSubmit(n int) queue.Option {
	return queue.MaxSubmit(n)
}

// MaxRunning caps simultaneously submitted jobs. Zero means unbounded.
func MaxRunning(n int) queue.Option {
	return queue.MaxRunning(n)
}

// CallbackConcurrency bounds concurrently executing done callbacks.
func CallbackConcurrency(n int) queue.Option {
	return queue.CallbackConcurrency(n)
}

// PollInterval sets how often each monitor polls the backend.
func PollInterval(d time.Duration) queue.Option {
	return queue.PollInterval(d)
}

// Manager option functions

// WithEvaluator adds an early-stop predicate run each dispatch pass.
func WithEvaluator(fn func()) manager.Option {
	return manager.WithEvaluator(fn)
}

// WithDispatchPeriod overrides the sleep between dispatch passes.
func WithDispatchPeriod(d time.Duration) manager.Option {
	return manager.WithDispatchPeriod(d)
}

// Journal helpers

// NewGormJournal creates a new GORM-backed journal.
func NewGormJournal(db *gorm.DB) *journal.GormJournal {
	return journal.NewGormJournal(db)
}

// JournalHook returns a queue finish hook appending one record per
// terminal outcome. A nil logger falls back to the default.
func JournalHook(j Journal, logger *slog.Logger) func(*Node, *JobFinished) {
	return journal.Hook(j, logger)
}

// NewJanitor creates a journal janitor enforcing the retention.
func NewJanitor(j Journal, retention time.Duration, logger *slog.Logger) *journal.Janitor {
	return journal.NewJanitor(j, retention, logger)
}
