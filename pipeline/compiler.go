package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/runner"
)

const (
	forgeBinary = "forge"

	// genericBuildError is reported when the compiler fails without output on stderr.
	genericBuildError = "Compilation failed"
)

// BuildResult is the outcome of one compiler run.
type BuildResult struct {
	Success bool
	Stdout  string
	Stderr  string
}

// ErrorText returns the diagnostics to show the user and the model.
func (r BuildResult) ErrorText() string {
	if r.Success {
		return ""
	}
	if text := strings.TrimSpace(r.Stderr); text != "" {
		return text
	}
	return genericBuildError
}

// Compiler runs forge in the contracts directory.
type Compiler struct {
	runner runner.ProcessRunner
	dir    string
	logger *zap.Logger
}

func NewCompiler(processRunner runner.ProcessRunner, contractsDir string, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{runner: processRunner, dir: contractsDir, logger: logger}
}

// Dir is the directory the compiler runs in.
func (c *Compiler) Dir() string {
	return c.dir
}

// CheckToolchain verifies that forge can be invoked at all.
func (c *Compiler) CheckToolchain(ctx context.Context) error {
	result, err := c.runner.Run(ctx, runner.Command{Name: forgeBinary, Args: []string{"--version"}, Dir: c.dir})
	if err != nil {
		return apperrors.ErrMissingToolchain(forgeBinary, err)
	}
	if !result.Success() {
		return apperrors.ErrMissingToolchain(forgeBinary, errors.New(strings.TrimSpace(result.Stderr)))
	}
	return nil
}

// Build runs `forge build`. Exit status alone decides success.
func (c *Compiler) Build(ctx context.Context) BuildResult {
	result, err := c.runner.Run(ctx, runner.Command{Name: forgeBinary, Args: []string{"build"}, Dir: c.dir})
	if err != nil {
		c.logger.Warn("compiler could not start", zap.Error(err))
		return BuildResult{Stderr: err.Error()}
	}

	build := BuildResult{Success: result.Success(), Stdout: result.Stdout, Stderr: result.Stderr}
	if build.Success {
		c.logger.Debug("compile succeeded")
	} else {
		c.logger.Info("compile failed", zap.Int("exit_code", result.ExitCode))
	}
	return build
}
