// Package repair drives the model to fix a failing contract build, one
// verified attempt at a time.
package repair

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/changeset"
	code_analyzer "github.com/meysamhadeli/dappai/code_analyzer/contracts"
	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/pipeline"
	"github.com/meysamhadeli/dappai/providers"
	"github.com/meysamhadeli/dappai/providers/contracts"
	"github.com/meysamhadeli/dappai/providers/models"
	"github.com/meysamhadeli/dappai/utils"
)

// DefaultMaxRetries is used when Options.MaxRetries is not positive.
const DefaultMaxRetries = 3

// Builder compiles the project.
type Builder interface {
	CheckToolchain(ctx context.Context) error
	Build(ctx context.Context) pipeline.BuildResult
}

// Options controls one repair run.
type Options struct {
	MaxRetries int
	// Auto applies proposed fixes without asking.
	Auto bool
	// InitialError skips the first compile when the caller already has failing output.
	InitialError string
}

// Result is the outcome of a repair run.
type Result struct {
	Success   bool
	Attempts  int
	LastError string
	// Aborted is set when the user declined or cancelled a proposed fix.
	Aborted bool
}

// Config wires a Loop to its collaborators.
type Config struct {
	Root         string
	ContractsDir string
	Builder      Builder
	Provider     contracts.IChatAIProvider
	Analyzer     code_analyzer.ICodeAnalyzer
	Prompter     utils.Prompter
	Out          io.Writer
	Theme        string
	Spin         utils.SpinFunc
	Logger       *zap.Logger
}

// Loop is the build-verify-repair loop.
type Loop struct {
	cfg Config
}

func NewLoop(cfg Config) *Loop {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Spin == nil {
		cfg.Spin = utils.NoSpin
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Loop{cfg: cfg}
}

// Run repairs the build. Setup problems are returned as errors and never
// consume an attempt; every other outcome is reported through Result.
func (l *Loop) Run(ctx context.Context, opts Options) (*Result, error) {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	if info, err := os.Stat(l.cfg.ContractsDir); err != nil || !info.IsDir() {
		return nil, apperrors.ErrMissingContractsDir(l.cfg.ContractsDir)
	}
	if err := l.cfg.Builder.CheckToolchain(ctx); err != nil {
		return nil, err
	}

	current := opts.InitialError
	if current == "" {
		build := l.build(ctx)
		if build.Success {
			fmt.Fprintln(l.cfg.Out, lipgloss.Green.Render("✅ Build already passes, nothing to repair"))
			return &Result{Success: true}, nil
		}
		current = build.ErrorText()
	}

	var previous string
	result := &Result{LastError: current}

	for result.Attempts < maxRetries {
		result.Attempts++
		attempt := result.Attempts
		log := l.cfg.Logger.With(zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries))

		fmt.Fprintln(l.cfg.Out, lipgloss.Info.Render(fmt.Sprintf("🔧 Repair attempt %d/%d", attempt, maxRetries)))

		entries, err := l.proposeFix(ctx, current, previous)
		if err != nil {
			if ctx.Err() != nil {
				result.Aborted = true
				return result, ctx.Err()
			}
			log.Warn("no usable fix from model", zap.Error(err))
			fmt.Fprintln(l.cfg.Out, lipgloss.Yellow.Render(fmt.Sprintf("⚠️ %v", err)))
			continue
		}

		if len(entries) == 0 {
			log.Info("model proposed no changes")
			fmt.Fprintln(l.cfg.Out, lipgloss.Yellow.Render("⚠️ The model proposed no changes"))
			continue
		}

		changeset.Preview(l.cfg.Out, l.cfg.Root, entries, l.cfg.Theme)

		if !opts.Auto {
			apply, err := l.cfg.Prompter.Confirm(ctx, "Apply this fix?", true)
			if err != nil && !errors.Is(err, apperrors.ErrCancelled) {
				return result, err
			}
			if err != nil || !apply {
				fmt.Fprintln(l.cfg.Out, lipgloss.Yellow.Render("Repair stopped, fix not applied"))
				result.Aborted = true
				return result, nil
			}
		}

		if err := changeset.Apply(l.cfg.Root, entries); err != nil {
			return result, err
		}
		log.Info("fix applied", zap.Strings("paths", changeset.Paths(entries)))

		build := l.build(ctx)
		if build.Success {
			fmt.Fprintln(l.cfg.Out, lipgloss.Green.Render(fmt.Sprintf("✅ Build fixed after %d attempt(s)", attempt)))
			result.Success = true
			result.LastError = ""
			return result, nil
		}

		previous, current = current, build.ErrorText()
		result.LastError = current
	}

	fmt.Fprintln(l.cfg.Out, lipgloss.Red.Render(fmt.Sprintf("❌ Build still failing after %d attempt(s)", result.Attempts)))
	return result, nil
}

func (l *Loop) build(ctx context.Context) pipeline.BuildResult {
	stop := l.cfg.Spin("Compiling contracts...")
	defer stop()
	return l.cfg.Builder.Build(ctx)
}

// proposeFix asks the model for a change set, re-asking once if the reply is
// not a valid JSON array.
func (l *Loop) proposeFix(ctx context.Context, currentError, previousError string) ([]changeset.ChangeEntry, error) {
	projectContext, err := l.cfg.Analyzer.BuildContext(ctx)
	if err != nil {
		l.cfg.Logger.Warn("failed to collect project context", zap.Error(err))
	}

	systemPrompt, err := buildSystemPrompt(projectContext, currentError, previousError)
	if err != nil {
		return nil, err
	}

	messages := []models.Message{{Role: models.RoleUser, Content: fixRequest}}
	for try := 0; try < 2; try++ {
		reply, err := l.send(ctx, systemPrompt, messages)
		if err != nil {
			return nil, err
		}

		entries, err := changeset.Parse(reply)
		if err == nil {
			return entries, nil
		}
		if !apperrors.IsKind(err, apperrors.MalformedResponse) || try == 1 {
			return nil, err
		}

		l.cfg.Logger.Debug("malformed fix, asking again", zap.Error(err))
		messages = append(messages,
			models.Message{Role: models.RoleAssistant, Content: reply},
			models.Message{Role: models.RoleUser, Content: formatRetry},
		)
	}
	return nil, apperrors.ErrMalformedResponse("no parsable reply")
}

func (l *Loop) send(ctx context.Context, systemPrompt string, messages []models.Message) (string, error) {
	stop := l.cfg.Spin("Asking the model for a fix...")
	defer stop()
	return providers.Send(ctx, l.cfg.Provider, systemPrompt, messages)
}
