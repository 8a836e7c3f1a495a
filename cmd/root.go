package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/auth"
	"github.com/meysamhadeli/dappai/code_analyzer"
	analyzer_contracts "github.com/meysamhadeli/dappai/code_analyzer/contracts"
	"github.com/meysamhadeli/dappai/config"
	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/logging"
	"github.com/meysamhadeli/dappai/pipeline"
	"github.com/meysamhadeli/dappai/project"
	"github.com/meysamhadeli/dappai/providers"
	"github.com/meysamhadeli/dappai/providers/contracts"
	"github.com/meysamhadeli/dappai/repair"
	"github.com/meysamhadeli/dappai/runner"
	"github.com/meysamhadeli/dappai/snapshot"
	"github.com/meysamhadeli/dappai/token_management"
	token_contracts "github.com/meysamhadeli/dappai/token_management/contracts"
	"github.com/meysamhadeli/dappai/utils"
)

// RootDependencies is everything a subcommand needs, built once per invocation.
type RootDependencies struct {
	Cwd             string
	Config          *config.Config
	Logger          *zap.Logger
	Layout          *project.Layout
	Runner          runner.ProcessRunner
	Store           *snapshot.Store
	Pipeline        *pipeline.Pipeline
	Analyzer        analyzer_contracts.ICodeAnalyzer
	TokenManagement token_contracts.ITokenManagement
	Credentials     *auth.Store
	Prompter        utils.Prompter
}

var rootCmd = &cobra.Command{
	Use:   "dappai",
	Short: "AI-assisted editing for Foundry dapp projects",
	Long: `dappai turns plain-language requests into edits of a dapp project, compiles
and deploys the contracts to a local chain, regenerates the frontend bindings, and
snapshots every step so any change can be reverted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("dappai version: %s", config.DefaultConfig.Version)))
			return nil
		}
		return cmd.Help()
	},
}

// terminalPrompter is shared so Execute can route Ctrl+C to a waiting prompt.
var terminalPrompter = utils.NewTerminalPrompter(os.Stdin, os.Stdout)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	// Ctrl+C at a text prompt aborts only that prompt; anywhere else it
	// cancels the command.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for {
			select {
			case <-interrupts:
				if !terminalPrompter.Interrupt() {
					cancel()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		if hint := apperrors.RemediationOf(err); hint != "" {
			fmt.Println(lipgloss.Yellow.Render(hint))
		}
		cancel()
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}

func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("error getting current working directory: %w", err)
	}

	cfg, err := config.LoadConfigs(rootCmd, cwd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cwd, cfg.Logging)
	if err != nil {
		return nil, err
	}

	layout, err := project.Resolve(cwd, cfg.Project)
	if err != nil {
		return nil, err
	}

	processRunner := runner.NewExecRunner(logger)

	skipDirs := make([]string, 0, len(layout.LibDirs))
	for _, dir := range layout.LibDirs {
		skipDirs = append(skipDirs, layout.Rel(dir))
	}

	return &RootDependencies{
		Cwd:             cwd,
		Config:          cfg,
		Logger:          logger.With(zap.String("command", cmd.Name())),
		Layout:          layout,
		Runner:          processRunner,
		Store:           snapshot.NewStore(layout.Root, processRunner, logger),
		Pipeline:        pipeline.New(layout, processRunner, logger),
		Analyzer:        code_analyzer.NewCodeAnalyzer(layout.Root, code_analyzer.NewSummaryCache(0, nil), logger, skipDirs...),
		TokenManagement: token_management.NewTokenManager(),
		Credentials:     auth.NewStore(auth.DefaultDir()),
		Prompter:        terminalPrompter,
	}, nil
}

// newProvider builds the configured chat provider, reporting a setup error
// when the configuration is incomplete.
func (d *RootDependencies) newProvider(aiConfig *providers.AIProviderConfig) (contracts.IChatAIProvider, error) {
	if !aiConfig.IsConfigured() {
		return nil, apperrors.ErrProviderNotConfigured(aiConfig.Provider)
	}
	return providers.ChatProviderFactory(aiConfig, d.TokenManagement)
}

func (d *RootDependencies) newRepairLoop(provider contracts.IChatAIProvider) *repair.Loop {
	return repair.NewLoop(repair.Config{
		Root:         d.Layout.Root,
		ContractsDir: d.Layout.ContractsDir,
		Builder:      d.Pipeline.Compiler(),
		Provider:     provider,
		Analyzer:     d.Analyzer,
		Prompter:     d.Prompter,
		Out:          os.Stdout,
		Theme:        d.Config.Theme,
		Spin:         utils.TerminalSpinner,
		Logger:       d.Logger,
	})
}
