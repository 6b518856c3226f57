package driver

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

// localJob tracks one directly-executed child process.
type localJob struct {
	cmd    *exec.Cmd
	status core.JobStatus
	killed bool
}

// localDriver executes jobs directly as child processes, bypassing the
// command-shelling path. Its submission never fails for
// backend-availability reasons; only an unstartable executable fails.
type localDriver struct {
	mu     sync.Mutex
	jobs   map[string]*localJob
	logger *slog.Logger
}

func newLocalDriver(logger *slog.Logger) *localDriver {
	return &localDriver{
		jobs:   make(map[string]*localJob),
		logger: logger,
	}
}

func (d *localDriver) Kind() Kind { return Local }

func (d *localDriver) Submit(_ context.Context, job *core.JobDescriptor) (core.SubmitStatus, string) {
	cmd := exec.Command(job.Executable, job.Args...)
	cmd.Dir = job.RunPath

	if err := cmd.Start(); err != nil {
		d.logger.Warn("could not start local job",
			"job", job.Name, "executable", job.Executable, "error", err)
		return core.SubmitDriverFail, ""
	}

	id := uuid.New().String()
	lj := &localJob{cmd: cmd, status: core.StatusRunning}

	d.mu.Lock()
	d.jobs[id] = lj
	d.mu.Unlock()

	go d.wait(id, lj)
	return core.SubmitOK, id
}

// wait reaps the child and records its terminal status.
func (d *localDriver) wait(id string, lj *localJob) {
	err := lj.cmd.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case lj.killed:
		lj.status = core.StatusIsKilled
	case err != nil:
		lj.status = core.StatusExit
	default:
		lj.status = core.StatusDone
	}
	d.logger.Debug("local job finished", "id", id, "status", lj.status)
}

func (d *localDriver) Status(_ context.Context, id string, _ *core.JobDescriptor) core.JobStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	lj, ok := d.jobs[id]
	if !ok {
		return core.StatusUnknown
	}
	return lj.status
}

func (d *localDriver) Kill(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	lj, ok := d.jobs[id]
	if !ok || lj.cmd.Process == nil {
		return false
	}
	if lj.status != core.StatusRunning {
		// Already finished; nothing to signal.
		return true
	}
	lj.killed = true
	return lj.cmd.Process.Signal(syscall.SIGTERM) == nil
}
