package core

// JobStatus represents the externally meaningful execution state of a job,
// as reported by the backend (or by sentinel files when the backend query
// is inconclusive).
type JobStatus string

const (
	// StatusWaiting means the job has not yet been submitted.
	StatusWaiting JobStatus = "waiting"
	// StatusSubmitted means the submission command was accepted but the
	// backend has not yet reported a state for the job.
	StatusSubmitted JobStatus = "submitted"
	// StatusPending means the backend accepted the job but it is not running.
	StatusPending JobStatus = "pending"
	// StatusRunning means the backend reports the job as executing.
	StatusRunning JobStatus = "running"
	// StatusDone means the process exited 0 with the expected sentinel files.
	StatusDone JobStatus = "done"
	// StatusExit means the process exited non-zero or sentinel files are missing.
	StatusExit JobStatus = "exit"
	// StatusSuccess means done plus an accepted done callback.
	StatusSuccess JobStatus = "success"
	// StatusFailed is a terminal failure with no further retries.
	StatusFailed JobStatus = "failed"
	// StatusIsKilled means the job was killed by this system.
	StatusIsKilled JobStatus = "is_killed"
	// StatusUnknown means the backend query failed; the job is treated as
	// still running to avoid false termination.
	StatusUnknown JobStatus = "unknown"
)

// IsRunning reports whether a job in this status still needs monitoring.
// Unknown counts as running so a briefly unreachable batch system does not
// terminate monitoring prematurely.
func (s JobStatus) IsRunning() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusRunning, StatusUnknown:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are expected.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusIsKilled:
		return true
	}
	return false
}

// ThreadStatus represents the lifecycle of a node's monitor goroutine.
// It is deliberately independent of JobStatus: JobStatus tracks the job's
// real-world execution state, ThreadStatus tracks whether this process has
// a live monitor for it.
type ThreadStatus string

const (
	// ThreadReady means no monitor has started, or the node was reset for
	// a retry and is eligible to be started again.
	ThreadReady ThreadStatus = "ready"
	// ThreadRunning means the monitor goroutine is active.
	ThreadRunning ThreadStatus = "running"
	// ThreadStopping means cooperative cancellation was requested.
	ThreadStopping ThreadStatus = "stopping"
	// ThreadDone means the monitor goroutine finished.
	ThreadDone ThreadStatus = "done"
	// ThreadFailed means the monitor hit an unrecoverable internal error.
	ThreadFailed ThreadStatus = "failed"
)

// SubmitStatus is the result of one submission attempt.
type SubmitStatus string

const (
	// SubmitOK means a backend job id was parsed from the submission output.
	SubmitOK SubmitStatus = "ok"
	// SubmitDriverFail means the submission command failed or produced
	// unparsable output. It is a normal result value, not an error.
	SubmitDriverFail SubmitStatus = "driver_fail"
)
