package core

import (
	"time"
)

// Limits applied when validating descriptors.
const (
	MaxJobNameLength = 255
	MaxNumCPU        = 1024
)

// DoneCallback runs after a job reaches done. It returns true to accept the
// result (job becomes success) or false to reclassify it as exit. A
// CallbackError return downgrades the job to failed.
type DoneCallback func(args any) (bool, error)

// ExitCallback runs once when a job reaches its terminal failed state.
type ExitCallback func(args any)

// TimeoutCallback runs when a job violates its max runtime. It may be
// invoked more than once while the job remains unkillable; callers must
// tolerate repeat invocation.
type TimeoutCallback func(args any)

// JobDescriptor is the immutable input describing one realization's job.
// The queue core never interprets the job's own file formats; it only
// launches the executable and watches the listed sentinel files.
type JobDescriptor struct {
	// Name identifies the job towards the backend and in logs.
	Name string
	// Executable is the job script to run.
	Executable string
	// Args are passed to the executable. By convention the run path is the
	// first argument.
	Args []string
	// RunPath is the prepared working directory for this realization.
	RunPath string
	// NumCPU is the CPU reservation requested from the backend.
	NumCPU int

	// StatusFile, OKFile and ExitFile are written by the job's wrapper
	// script on shared storage. They are the authoritative fallback
	// whenever a backend status query is ambiguous or empty.
	StatusFile string
	OKFile     string
	ExitFile   string

	// MaxRuntime bounds wall-clock runtime; zero means unlimited.
	MaxRuntime time.Duration

	DoneCallback    DoneCallback
	ExitCallback    ExitCallback
	TimeoutCallback TimeoutCallback
	// CallbackArgs is handed opaquely to every callback.
	CallbackArgs any
}

// Validate checks the descriptor and clamps out-of-range fields.
func (d *JobDescriptor) Validate() error {
	if d.Executable == "" {
		return ErrMissingExecutable
	}
	if d.RunPath == "" {
		return ErrMissingRunPath
	}
	if len(d.Name) > MaxJobNameLength {
		return ErrJobNameTooLong
	}
	if d.NumCPU < 1 {
		d.NumCPU = 1
	}
	if d.NumCPU > MaxNumCPU {
		d.NumCPU = MaxNumCPU
	}
	return nil
}
