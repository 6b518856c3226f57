package driver

import (
	"fmt"
	"strings"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

// Slurm talks through sbatch/squeue/scancel. sbatch prints the bare job id
// (or "Submitted batch job <id>"), squeue is queried with -o "%i %T" for
// bare "id STATE" tokens.

func slurmSubmitArgs(c Commands, d *core.JobDescriptor) (string, []string) {
	args := []string{
		"--job-name=" + d.Name,
		fmt.Sprintf("--ntasks=%d", d.NumCPU),
		"--chdir=" + d.RunPath,
		d.Executable,
	}
	return c.Submit, append(args, d.Args...)
}

func parseSlurmSubmit(out string) (string, bool) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", false
	}
	// Plain "1234" or "Submitted batch job 1234".
	id := fields[len(fields)-1]
	if !allDigits(id) {
		return "", false
	}
	return id, true
}

func slurmStatusArgs(c Commands, id string) (string, []string) {
	return c.Status, []string{"-h", "-o", "%i %T", "-j", id}
}

func parseSlurmStatus(out, id string) (core.JobStatus, bool) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != id {
			continue
		}
		switch fields[1] {
		case "PENDING", "CONFIGURING":
			return core.StatusPending, true
		case "RUNNING", "COMPLETING":
			return core.StatusRunning, true
		case "COMPLETED":
			return core.StatusDone, true
		case "FAILED", "TIMEOUT", "OUT_OF_MEMORY", "NODE_FAIL":
			return core.StatusExit, true
		case "CANCELLED":
			return core.StatusIsKilled, true
		}
		return core.StatusUnknown, true
	}
	return "", false
}
