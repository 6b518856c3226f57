package driver

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

// runFunc invokes a backend command and returns its combined output.
// Indirected so tests can substitute canned CLI output.
type runFunc func(ctx context.Context, name string, args ...string) (string, error)

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// grammar is the per-kind strategy table: how to build the backend command
// lines and how to parse their output. The backend set is closed, so new
// kinds are added here rather than by open-ended subclassing.
type grammar struct {
	submitArgs  func(c Commands, d *core.JobDescriptor) (string, []string)
	parseSubmit func(out string) (string, bool)
	statusArgs  func(c Commands, id string) (string, []string)
	// parseStatus returns ok=false when the output holds no verdict for
	// the job, e.g. it was already purged from the backend's table.
	parseStatus func(out, id string) (core.JobStatus, bool)
	killArgs    func(c Commands, id string) (string, []string)
}

var grammars = map[Kind]grammar{
	LSF: {
		submitArgs:  lsfSubmitArgs,
		parseSubmit: parseLSFSubmit,
		statusArgs:  lsfStatusArgs,
		parseStatus: parseLSFStatus,
		killArgs:    func(c Commands, id string) (string, []string) { return c.Kill, []string{id} },
	},
	Slurm: {
		submitArgs:  slurmSubmitArgs,
		parseSubmit: parseSlurmSubmit,
		statusArgs:  slurmStatusArgs,
		parseStatus: parseSlurmStatus,
		killArgs:    func(c Commands, id string) (string, []string) { return c.Kill, []string{id} },
	},
	Torque: {
		submitArgs:  torqueSubmitArgs,
		parseSubmit: parseTorqueSubmit,
		statusArgs:  torqueStatusArgs,
		parseStatus: parseTorqueStatus,
		killArgs:    func(c Commands, id string) (string, []string) { return c.Kill, []string{id} },
	},
}

// cliDriver adapts one batch backend by shelling out to its command-line
// tools.
type cliDriver struct {
	kind    Kind
	cmds    Commands
	grammar grammar
	timeout time.Duration
	run     runFunc
	logger  *slog.Logger
}

func newCLIDriver(kind Kind, options Options) *cliDriver {
	return &cliDriver{
		kind:    kind,
		cmds:    options.Commands.withDefaults(defaultCommands[kind]),
		grammar: grammars[kind],
		timeout: options.CommandTimeout,
		run:     runCommand,
		logger:  options.Logger,
	}
}

func (d *cliDriver) Kind() Kind { return d.kind }

func (d *cliDriver) Submit(ctx context.Context, job *core.JobDescriptor) (core.SubmitStatus, string) {
	name, args := d.grammar.submitArgs(d.cmds, job)

	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out, err := d.run(cctx, name, args...)
	if err != nil {
		d.logger.Warn("submit command failed",
			"backend", d.kind, "command", name, "job", job.Name, "error", err)
		return core.SubmitDriverFail, ""
	}

	id, ok := d.grammar.parseSubmit(out)
	if !ok {
		d.logger.Warn("could not parse job id from submit output",
			"backend", d.kind, "job", job.Name, "output", strings.TrimSpace(out))
		return core.SubmitDriverFail, ""
	}
	return core.SubmitOK, id
}

func (d *cliDriver) Status(ctx context.Context, id string, job *core.JobDescriptor) core.JobStatus {
	name, args := d.grammar.statusArgs(d.cmds, id)

	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out, err := d.run(cctx, name, args...)
	if err != nil {
		// The job may simply have completed and been purged from the
		// backend's table; the sentinel files decide.
		return sentinelStatus(job)
	}

	status, ok := d.grammar.parseStatus(out, id)
	if !ok {
		return sentinelStatus(job)
	}
	return status
}

func (d *cliDriver) Kill(ctx context.Context, id string) bool {
	name, args := d.grammar.killArgs(d.cmds, id)

	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	_, err := d.run(cctx, name, args...)
	if err != nil {
		d.logger.Debug("kill command failed", "backend", d.kind, "id", id, "error", err)
	}
	return err == nil
}
