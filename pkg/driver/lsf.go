package driver

import (
	"fmt"
	"strings"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

// LSF talks through bsub/bjobs/bkill. bsub reports the assigned id in
// prose, bjobs prints a whitespace-separated table with a STAT column.

func lsfSubmitArgs(c Commands, d *core.JobDescriptor) (string, []string) {
	args := []string{
		"-J", d.Name,
		"-n", fmt.Sprintf("%d", d.NumCPU),
		"-cwd", d.RunPath,
		d.Executable,
	}
	return c.Submit, append(args, d.Args...)
}

// parseLSFSubmit extracts the job id from output like
// "Job <1234> is submitted to default queue <normal>.".
func parseLSFSubmit(out string) (string, bool) {
	start := strings.Index(out, "<")
	end := strings.Index(out, ">")
	if start < 0 || end < 0 || end <= start+1 {
		return "", false
	}
	id := out[start+1 : end]
	if !allDigits(id) {
		return "", false
	}
	return id, true
}

func lsfStatusArgs(c Commands, id string) (string, []string) {
	return c.Status, []string{id}
}

// parseLSFStatus scans the bjobs table for the job's row. The first line
// is a header (JOBID USER STAT ...); the STAT column is the third field.
func parseLSFStatus(out, id string) (core.JobStatus, bool) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != id {
			continue
		}
		switch fields[2] {
		case "PEND":
			return core.StatusPending, true
		case "RUN", "PSUSP", "USUSP", "SSUSP":
			// Suspended jobs are still alive from the queue's viewpoint.
			return core.StatusRunning, true
		case "DONE":
			return core.StatusDone, true
		case "EXIT", "ZOMBI":
			return core.StatusExit, true
		case "UNKWN":
			return core.StatusUnknown, true
		}
		return core.StatusUnknown, true
	}
	return "", false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
