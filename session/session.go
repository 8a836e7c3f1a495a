// Package session runs the interactive edit loop: ask the model, apply its
// change set, rebuild, and offer recovery when the build breaks. Every turn
// is bracketed by snapshots so any edit can be undone.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/auth"
	code_analyzer "github.com/meysamhadeli/dappai/code_analyzer/contracts"
	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/pipeline"
	"github.com/meysamhadeli/dappai/project"
	"github.com/meysamhadeli/dappai/providers"
	"github.com/meysamhadeli/dappai/providers/contracts"
	"github.com/meysamhadeli/dappai/providers/models"
	"github.com/meysamhadeli/dappai/repair"
	"github.com/meysamhadeli/dappai/snapshot"
	token_management "github.com/meysamhadeli/dappai/token_management/contracts"
	"github.com/meysamhadeli/dappai/utils"
)

// Snapshot labels.
const (
	SessionStartLabel = "Session start"
	SessionEndLabel   = "Session end"
	beforePrefix      = "Before AI: "
	afterPrefix       = "After AI: "

	beforeLabelLength = 50
	refineErrorLength = 2000
)

// SnapshotStore is the subset of snapshot.Store the session needs.
type SnapshotStore interface {
	EnsureRepo(ctx context.Context) error
	CreateSnapshot(ctx context.Context, message string) (*snapshot.Snapshot, error)
	ListSnapshots(ctx context.Context, count int) []snapshot.Snapshot
	RevertToSnapshot(ctx context.Context, hash string) (*snapshot.Snapshot, error)
	LatestHash(ctx context.Context) (string, bool)
}

type Rebuilder interface {
	Rebuild(ctx context.Context, opts pipeline.Options) pipeline.RebuildResult
}

type Repairer interface {
	Run(ctx context.Context, opts repair.Options) (*repair.Result, error)
}

type CredentialLoader interface {
	Load() (*auth.Credential, error)
}

// ProviderFactory builds a chat provider from a complete configuration.
type ProviderFactory func(config *providers.AIProviderConfig) (contracts.IChatAIProvider, error)

// Config wires a Controller. Out, Spin and Logger have usable defaults.
type Config struct {
	Layout      *project.Layout
	Store       SnapshotStore
	Pipeline    Rebuilder
	NewRepairer func(provider contracts.IChatAIProvider) Repairer
	Credentials CredentialLoader
	Analyzer    code_analyzer.ICodeAnalyzer
	Tokens      token_management.ITokenManagement
	Prompter    utils.Prompter

	AIConfig     *providers.AIProviderConfig
	NewProvider  ProviderFactory
	SaveAIConfig func(config *providers.AIProviderConfig) error

	// Deploy makes every rebuild deploy to the local chain.
	Deploy     bool
	MaxRetries int
	AutoRepair bool

	Theme     string
	Out       io.Writer
	Spin      utils.SpinFunc
	Logger    *zap.Logger
	SessionID string
}

// Controller owns one interactive session. It is not safe for concurrent use.
type Controller struct {
	cfg      Config
	provider contracts.IChatAIProvider
	repairer Repairer
	history  []models.Message
	out      io.Writer
	logger   *zap.Logger
}

func NewController(cfg Config) *Controller {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Spin == nil {
		cfg.Spin = utils.NoSpin
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	return &Controller{
		cfg:    cfg,
		out:    cfg.Out,
		logger: cfg.Logger.With(zap.String("session_id", cfg.SessionID)),
	}
}

// History returns a copy of the conversation so far.
func (c *Controller) History() []models.Message {
	return append([]models.Message(nil), c.history...)
}

// Run checks preconditions, then loops until the user exits or ctx is
// cancelled. A "Session end" snapshot is taken on every exit path once the
// session has started.
func (c *Controller) Run(ctx context.Context) (err error) {
	if err := c.cfg.Layout.Validate(); err != nil {
		return err
	}
	if _, err := c.cfg.Credentials.Load(); err != nil {
		return err
	}

	provider, err := c.resolveProvider(ctx)
	if err != nil {
		return err
	}
	if provider == nil {
		fmt.Fprintln(c.out, lipgloss.Yellow.Render("No AI provider configured, session not started."))
		return nil
	}
	c.provider = provider
	c.repairer = c.cfg.NewRepairer(provider)

	if err := c.cfg.Store.EnsureRepo(ctx); err != nil {
		return err
	}
	if _, err := c.cfg.Store.CreateSnapshot(ctx, SessionStartLabel); err != nil {
		return err
	}
	c.logger.Info("session started", zap.String("root", c.cfg.Layout.Root))

	defer func() {
		// The end snapshot must survive an interrupted ctx.
		if _, snapErr := c.cfg.Store.CreateSnapshot(context.WithoutCancel(ctx), SessionEndLabel); snapErr != nil {
			c.logger.Error("session end snapshot failed", zap.Error(snapErr))
			if err == nil {
				err = snapErr
			}
		}
		c.logger.Info("session ended")
	}()

	fmt.Fprintln(c.out, lipgloss.BoxStyle.Render("/help  Help for chat commands"))

	for {
		input, err := c.cfg.Prompter.Ask(ctx, "> ")
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out, lipgloss.Yellow.Render("\n🔄 Exiting..."))
				return nil
			}
			if errors.Is(err, apperrors.ErrCancelled) {
				fmt.Fprintln(c.out, lipgloss.Yellow.Render("Cancelled, type /exit to quit"))
				continue
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if exit := c.handleCommand(ctx, input); exit {
				return nil
			}
			continue
		}

		c.turn(ctx, input)
	}
}

func (c *Controller) displayTokens() {
	if c.cfg.Tokens == nil || c.cfg.AIConfig == nil {
		return
	}
	c.cfg.Tokens.DisplayTokens(c.out, c.cfg.AIConfig.Provider, c.cfg.AIConfig.Model)
}

func (c *Controller) printError(err error) {
	fmt.Fprintln(c.out, lipgloss.Red.Render(fmt.Sprintf("%v", err)))
	if hint := apperrors.RemediationOf(err); hint != "" {
		fmt.Fprintln(c.out, lipgloss.Yellow.Render(hint))
	}
}

// beforeLabel truncates the request so the commit subject stays short.
func beforeLabel(request string) string {
	return beforePrefix + truncate(singleLine(request), beforeLabelLength)
}

func afterLabel(request string) string {
	return afterPrefix + singleLine(request)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
