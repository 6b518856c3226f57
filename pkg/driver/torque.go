package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

// Torque talks through qsub/qstat/qdel. qsub prints "<id>.<hostname>",
// qstat -f prints keyword = value blocks with a job_state line.

func torqueSubmitArgs(c Commands, d *core.JobDescriptor) (string, []string) {
	args := []string{
		"-N", d.Name,
		"-l", fmt.Sprintf("nodes=1:ppn=%d", d.NumCPU),
		"-d", d.RunPath,
		d.Executable,
	}
	return c.Submit, append(args, d.Args...)
}

func parseTorqueSubmit(out string) (string, bool) {
	token := strings.TrimSpace(out)
	if token == "" {
		return "", false
	}
	// "1234.hostname" or bare "1234"; the id is the leading numeric part.
	id, _, _ := strings.Cut(token, ".")
	if !allDigits(id) {
		return "", false
	}
	return id, true
}

func torqueStatusArgs(c Commands, id string) (string, []string) {
	return c.Status, []string{"-f", id}
}

func parseTorqueStatus(out, id string) (core.JobStatus, bool) {
	state := ""
	exitStatus := 0
	haveExit := false

	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "job_state":
			state = value
		case "Exit_status":
			if n, err := strconv.Atoi(value); err == nil {
				exitStatus = n
				haveExit = true
			}
		}
	}

	switch state {
	case "Q", "H", "W", "T":
		return core.StatusPending, true
	case "R", "E":
		return core.StatusRunning, true
	case "C", "F":
		if haveExit && exitStatus != 0 {
			return core.StatusExit, true
		}
		return core.StatusDone, true
	}
	if haveExit && exitStatus != 0 {
		return core.StatusExit, true
	}
	return "", false
}
