package driver

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

func waitForStatus(t *testing.T, drv Driver, id string, d *core.JobDescriptor, want core.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if drv.Status(context.Background(), id, d) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status never reached %s (last: %s)", want, drv.Status(context.Background(), id, d))
}

func TestLocalDriverRunsToDone(t *testing.T) {
	drv := newLocalDriver(slog.Default())
	d := testDescriptor(t.TempDir())
	d.Executable = "/bin/sh"
	d.Args = []string{"-c", "exit 0"}

	result, id := drv.Submit(context.Background(), d)
	require.Equal(t, core.SubmitOK, result)
	require.NotEmpty(t, id)
	waitForStatus(t, drv, id, d, core.StatusDone)
}

func TestLocalDriverNonZeroExit(t *testing.T) {
	drv := newLocalDriver(slog.Default())
	d := testDescriptor(t.TempDir())
	d.Executable = "/bin/sh"
	d.Args = []string{"-c", "exit 1"}

	result, id := drv.Submit(context.Background(), d)
	require.Equal(t, core.SubmitOK, result)
	waitForStatus(t, drv, id, d, core.StatusExit)
}

func TestLocalDriverUnstartableExecutable(t *testing.T) {
	drv := newLocalDriver(slog.Default())
	d := testDescriptor(t.TempDir())
	d.Executable = "/no/such/binary"

	result, id := drv.Submit(context.Background(), d)
	assert.Equal(t, core.SubmitDriverFail, result)
	assert.Empty(t, id)
}

func TestLocalDriverKill(t *testing.T) {
	drv := newLocalDriver(slog.Default())
	d := testDescriptor(t.TempDir())
	d.Executable = "/bin/sh"
	d.Args = []string{"-c", "sleep 30"}

	result, id := drv.Submit(context.Background(), d)
	require.Equal(t, core.SubmitOK, result)
	waitForStatus(t, drv, id, d, core.StatusRunning)

	assert.True(t, drv.Kill(context.Background(), id))
	waitForStatus(t, drv, id, d, core.StatusIsKilled)
}

func TestLocalDriverUnknownID(t *testing.T) {
	drv := newLocalDriver(slog.Default())
	status := drv.Status(context.Background(), "no-such-id", testDescriptor(t.TempDir()))
	assert.Equal(t, core.StatusUnknown, status)
}
