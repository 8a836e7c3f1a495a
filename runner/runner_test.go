package runner

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_CapturesStreamsAndExitCode(t *testing.T) {
	requireShell(t)
	r := NewExecRunner(nil)

	res, err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2; exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.Success())
}

func TestExecRunner_AppendsEnv(t *testing.T) {
	requireShell(t)
	r := NewExecRunner(nil)

	res, err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "printf %s \"$DAPPAI_TEST_VALUE\""},
		Env:  []string{"DAPPAI_TEST_VALUE=hello"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "hello", res.Stdout)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := NewExecRunner(nil)

	_, err := r.Run(context.Background(), Command{Name: "dappai-definitely-missing-binary"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "forge build", Command{Name: "forge", Args: []string{"build"}}.String())
	assert.Equal(t, "anvil", Command{Name: "anvil"}.String())
}
