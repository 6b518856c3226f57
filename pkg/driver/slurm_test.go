package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

func TestParseSlurmSubmit(t *testing.T) {
	id, ok := parseSlurmSubmit("1234\n")
	require.True(t, ok)
	assert.Equal(t, "1234", id)

	id, ok = parseSlurmSubmit("Submitted batch job 5678\n")
	require.True(t, ok)
	assert.Equal(t, "5678", id)
}

func TestParseSlurmSubmitInvalid(t *testing.T) {
	for _, out := range []string{"", "invalid", "sbatch: error: Batch job submission failed"} {
		_, ok := parseSlurmSubmit(out)
		assert.False(t, ok, "output %q should not parse", out)
	}
}

func TestParseSlurmStatus(t *testing.T) {
	tests := []struct {
		state string
		want  core.JobStatus
	}{
		{"PENDING", core.StatusPending},
		{"CONFIGURING", core.StatusPending},
		{"RUNNING", core.StatusRunning},
		{"COMPLETING", core.StatusRunning},
		{"COMPLETED", core.StatusDone},
		{"FAILED", core.StatusExit},
		{"TIMEOUT", core.StatusExit},
		{"CANCELLED", core.StatusIsKilled},
	}
	for _, tt := range tests {
		status, ok := parseSlurmStatus("1234 "+tt.state+"\n", "1234")
		require.True(t, ok, "state %s", tt.state)
		assert.Equal(t, tt.want, status, "state %s", tt.state)
	}
}

func TestParseSlurmStatusJobGone(t *testing.T) {
	// squeue prints nothing for completed-and-purged jobs.
	_, ok := parseSlurmStatus("", "1234")
	assert.False(t, ok)

	_, ok = parseSlurmStatus("9999 RUNNING\n", "1234")
	assert.False(t, ok)
}
