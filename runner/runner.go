package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries (KEY=VALUE) are appended to the current process environment.
	Env []string
}

// String returns the command line for display and logging.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the captured outcome of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports a zero exit status.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// ProcessRunner runs subprocesses. A non-zero exit is reported through
// Result.ExitCode; the error is reserved for processes that could not run at all.
type ProcessRunner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ErrNotFound is returned when the binary cannot be located on PATH.
var ErrNotFound = errors.New("executable not found")

// ExecRunner is the os/exec backed ProcessRunner.
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner creates a runner that logs every invocation.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{logger: logger}
}

// Run executes the command and captures stdout and stderr separately.
func (r *ExecRunner) Run(ctx context.Context, command Command) (*Result, error) {
	if command.Name == "" {
		return nil, fmt.Errorf("empty command provided")
	}

	path, err := exec.LookPath(command.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command.Name, ErrNotFound)
	}

	cmd := exec.CommandContext(ctx, path, command.Args...)
	cmd.Dir = command.Dir
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}
	configureProcess(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running command", zap.String("cmd", command.String()), zap.String("dir", command.Dir))

	err = cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.logger.Debug("command exited non-zero",
				zap.String("cmd", command.String()),
				zap.Int("exit_code", result.ExitCode))
			return result, nil
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, fmt.Errorf("failed to run %s: %w", command.Name, err)
	}

	return result, nil
}
