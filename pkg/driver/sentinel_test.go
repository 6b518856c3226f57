package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/ensemble-queue/pkg/core"
)

func touch(t *testing.T, runPath, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(runPath, name), nil, 0o644))
}

func TestSentinelStatusOKFileWins(t *testing.T) {
	runPath := t.TempDir()
	touch(t, runPath, "OK")
	// OK takes precedence even if an exit file also exists.
	touch(t, runPath, "ERROR")

	assert.Equal(t, core.StatusDone, sentinelStatus(testDescriptor(runPath)))
}

func TestSentinelStatusExitFile(t *testing.T) {
	runPath := t.TempDir()
	touch(t, runPath, "ERROR")

	assert.Equal(t, core.StatusExit, sentinelStatus(testDescriptor(runPath)))
}

func TestSentinelStatusStatusFileMeansRunning(t *testing.T) {
	runPath := t.TempDir()
	touch(t, runPath, "STATUS")

	assert.Equal(t, core.StatusRunning, sentinelStatus(testDescriptor(runPath)))
}

func TestSentinelStatusNoFilesIsUnknown(t *testing.T) {
	assert.Equal(t, core.StatusUnknown, sentinelStatus(testDescriptor(t.TempDir())))
	assert.Equal(t, core.StatusUnknown, sentinelStatus(nil))
}

func TestSentinelAbsolutePaths(t *testing.T) {
	runPath := t.TempDir()
	okPath := filepath.Join(runPath, "custom_ok")
	require.NoError(t, os.WriteFile(okPath, nil, 0o644))

	d := testDescriptor(runPath)
	d.OKFile = okPath
	assert.Equal(t, core.StatusDone, sentinelStatus(d))
}
