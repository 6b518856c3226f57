package core

import "time"

// Event is the interface for all queue events.
type Event interface {
	eventMarker()
}

// JobSubmitted is emitted when a submission attempt completes.
type JobSubmitted struct {
	Name      string
	RunPath   string
	Attempt   int
	Result    SubmitStatus
	BackendID string
	Timestamp time.Time
}

func (*JobSubmitted) eventMarker() {}

// JobStatusChanged is emitted when a poll observes a new queue status.
type JobStatusChanged struct {
	Name      string
	RunPath   string
	From      JobStatus
	To        JobStatus
	Timestamp time.Time
}

func (*JobStatusChanged) eventMarker() {}

// JobKillAttempted is emitted when the kill policy fires.
type JobKillAttempted struct {
	Name      string
	RunPath   string
	Attempts  int
	TimedOut  bool
	Timestamp time.Time
}

func (*JobKillAttempted) eventMarker() {}

// JobFinished is emitted when a node's monitor reaches a terminal thread
// status.
type JobFinished struct {
	Name      string
	RunPath   string
	Status    JobStatus
	Attempts  int
	TimedOut  bool
	Runtime   time.Duration
	Timestamp time.Time
}

func (*JobFinished) eventMarker() {}
