package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

func TestParseLSFSubmit(t *testing.T) {
	id, ok := parseLSFSubmit("Job <1234> is submitted to default queue <normal>.\n")
	require.True(t, ok)
	assert.Equal(t, "1234", id)
}

func TestParseLSFSubmitInvalid(t *testing.T) {
	tests := []string{
		"invalid",
		"",
		"Job <> is submitted",
		"Job <abc> is submitted to default queue <normal>.",
	}
	for _, out := range tests {
		_, ok := parseLSFSubmit(out)
		assert.False(t, ok, "output %q should not parse", out)
	}
}

const bjobsHeader = "JOBID USER STAT QUEUE FROM_HOST EXEC_HOST JOB_NAME SUBMIT_TIME\n"

func TestParseLSFStatus(t *testing.T) {
	tests := []struct {
		stat string
		want core.JobStatus
	}{
		{"PEND", core.StatusPending},
		{"RUN", core.StatusRunning},
		{"PSUSP", core.StatusRunning},
		{"DONE", core.StatusDone},
		{"EXIT", core.StatusExit},
		{"UNKWN", core.StatusUnknown},
	}
	for _, tt := range tests {
		out := bjobsHeader + "1234 user " + tt.stat + " normal host exec_host name Nov 24 10:00\n"
		status, ok := parseLSFStatus(out, "1234")
		require.True(t, ok, "stat %s", tt.stat)
		assert.Equal(t, tt.want, status, "stat %s", tt.stat)
	}
}

func TestParseLSFStatusJobNotInTable(t *testing.T) {
	// A finished job purged from the backend's table: no row, no verdict.
	_, ok := parseLSFStatus(bjobsHeader, "1234")
	assert.False(t, ok)

	_, ok = parseLSFStatus(bjobsHeader+"9999 user RUN normal host exec name now\n", "1234")
	assert.False(t, ok)
}
