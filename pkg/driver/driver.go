package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

// Kind identifies a backend.
type Kind string

const (
	Local  Kind = "LOCAL"
	LSF    Kind = "LSF"
	Slurm  Kind = "SLURM"
	Torque Kind = "TORQUE"
)

// Driver is the capability interface every backend adapter implements.
// Implementations are stateless per call apart from the bookkeeping needed
// to map a submitted job to a backend-native job id.
type Driver interface {
	// Kind returns the backend kind this driver was built for.
	Kind() Kind

	// Submit hands the job to the backend and returns the submission
	// outcome plus the backend-native job id when the outcome is SubmitOK.
	Submit(ctx context.Context, d *core.JobDescriptor) (core.SubmitStatus, string)

	// Status queries the backend for the job's state. The descriptor is
	// consulted for sentinel-file fallback when the backend query is
	// ambiguous or the job is no longer in the backend's table.
	Status(ctx context.Context, id string, d *core.JobDescriptor) core.JobStatus

	// Kill asks the backend to cancel the job. It reports whether the
	// cancel command itself succeeded, not whether the job terminated;
	// actual termination is confirmed by later Status calls.
	Kill(ctx context.Context, id string) bool
}

// Commands holds the backend command names for one kind. Zero fields keep
// the kind's defaults.
type Commands struct {
	Submit string `yaml:"submit"`
	Status string `yaml:"status"`
	Kill   string `yaml:"kill"`
}

func (c Commands) withDefaults(def Commands) Commands {
	if c.Submit == "" {
		c.Submit = def.Submit
	}
	if c.Status == "" {
		c.Status = def.Status
	}
	if c.Kill == "" {
		c.Kill = def.Kill
	}
	return c
}

var defaultCommands = map[Kind]Commands{
	LSF:    {Submit: "bsub", Status: "bjobs", Kill: "bkill"},
	Slurm:  {Submit: "sbatch", Status: "squeue", Kill: "scancel"},
	Torque: {Submit: "qsub", Status: "qstat", Kill: "qdel"},
}

// DefaultCommandTimeout bounds each backend CLI invocation.
const DefaultCommandTimeout = 10 * time.Second

// Options configures a driver.
type Options struct {
	Commands       Commands
	CommandTimeout time.Duration
	Logger         *slog.Logger
}

// Option modifies Options.
type Option func(*Options)

// WithCommands overrides the backend command names.
func WithCommands(c Commands) Option {
	return func(o *Options) { o.Commands = c }
}

// WithCommandTimeout bounds each backend CLI invocation.
func WithCommandTimeout(d time.Duration) Option {
	return func(o *Options) { o.CommandTimeout = d }
}

// WithLogger sets the driver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// New creates a driver for the given backend kind.
func New(kind Kind, opts ...Option) (Driver, error) {
	options := Options{CommandTimeout: DefaultCommandTimeout}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	switch kind {
	case Local:
		return newLocalDriver(options.Logger), nil
	case LSF, Slurm, Torque:
		return newCLIDriver(kind, options), nil
	default:
		return nil, fmt.Errorf("jobqueue: unknown queue system %q", kind)
	}
}
