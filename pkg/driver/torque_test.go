package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

func TestParseTorqueSubmit(t *testing.T) {
	id, ok := parseTorqueSubmit("1234.hostname\n")
	require.True(t, ok)
	assert.Equal(t, "1234", id)

	id, ok = parseTorqueSubmit("42\n")
	require.True(t, ok)
	assert.Equal(t, "42", id)
}

func TestParseTorqueSubmitInvalid(t *testing.T) {
	for _, out := range []string{"", "invalid", "qsub: submit error"} {
		_, ok := parseTorqueSubmit(out)
		assert.False(t, ok, "output %q should not parse", out)
	}
}

func qstatOutput(jobState string) string {
	return "Job Id: 1234.s034-lcam\n" +
		"    Job_Name = jobname\n" +
		"    Job_Owner = owner\n" +
		"    queue = normal\n" +
		"    job_state = " + jobState + "\n"
}

func TestParseTorqueStatus(t *testing.T) {
	tests := []struct {
		state string
		want  core.JobStatus
	}{
		{"Q", core.StatusPending},
		{"H", core.StatusPending},
		{"R", core.StatusRunning},
		{"E", core.StatusRunning},
		{"C", core.StatusDone},
		{"F", core.StatusDone},
	}
	for _, tt := range tests {
		status, ok := parseTorqueStatus(qstatOutput(tt.state), "1234")
		require.True(t, ok, "job_state %s", tt.state)
		assert.Equal(t, tt.want, status, "job_state %s", tt.state)
	}
}

func TestParseTorqueStatusExitStatus(t *testing.T) {
	// A completed job with a non-zero Exit_status is a failure.
	out := qstatOutput("C") + "    Exit_status = -1\n"
	status, ok := parseTorqueStatus(out, "1234")
	require.True(t, ok)
	assert.Equal(t, core.StatusExit, status)

	out = qstatOutput("C") + "    Exit_status = 0\n"
	status, ok = parseTorqueStatus(out, "1234")
	require.True(t, ok)
	assert.Equal(t, core.StatusDone, status)
}

func TestParseTorqueStatusNoVerdict(t *testing.T) {
	_, ok := parseTorqueStatus("", "1234")
	assert.False(t, ok)

	_, ok = parseTorqueStatus("garbage with no keywords", "1234")
	assert.False(t, ok)
}
