// Package driver provides the backend adapters that submit, poll and kill
// jobs on a cluster or local execution backend.
//
// The batch backends (LSF, Slurm, Torque) shell out to the backend's
// command-line tools and parse their text output into the normalized
// status vocabulary of pkg/core. The local backend executes the job
// directly as a child process. The backend set is closed: adapters are
// selected by Kind at construction time, with per-kind command tables.
//
// Drivers never return errors across the interface. Any transient
// inability to submit or query (missing CLI, timeout, unparsable output)
// is reported as SubmitDriverFail or StatusUnknown so that a briefly
// unreachable batch system cannot cascade into false job failures.
package driver
