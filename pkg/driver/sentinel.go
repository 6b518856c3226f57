package driver

import (
	"os"
	"path/filepath"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

// sentinelStatus derives a job's status from the sentinel files its wrapper
// script writes on shared storage. This is the authoritative fallback when
// the backend query is ambiguous or the job has been purged from the
// backend's table.
func sentinelStatus(job *core.JobDescriptor) core.JobStatus {
	if job == nil {
		return core.StatusUnknown
	}
	if sentinelExists(job.RunPath, job.OKFile) {
		return core.StatusDone
	}
	if sentinelExists(job.RunPath, job.ExitFile) {
		return core.StatusExit
	}
	if sentinelExists(job.RunPath, job.StatusFile) {
		// The job started writing status but has produced no verdict yet.
		return core.StatusRunning
	}
	return core.StatusUnknown
}

func sentinelExists(runPath, name string) bool {
	if name == "" {
		return false
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(runPath, name)
	}
	_, err := os.Stat(name)
	return err == nil
}
