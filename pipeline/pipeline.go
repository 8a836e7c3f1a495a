// Package pipeline rebuilds a project after an edit: compile the contracts,
// optionally deploy them to the local chain, then regenerate frontend bindings.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/project"
	"github.com/meysamhadeli/dappai/runner"
)

// Options selects the optional stages of a rebuild.
type Options struct {
	Deploy bool
}

// RebuildResult reports each stage separately. Deploy and codegen are
// independent: a failed deploy never prevents codegen.
type RebuildResult struct {
	BuildSuccess   bool
	DeploySuccess  bool
	CodegenSuccess bool
	BuildErrors    string

	// DeploySkipped is set when deployment was requested but not attempted.
	DeploySkipped bool
	MissingParams []string
	Deployments   map[string]ContractDeployment
}

// Pipeline sequences compile, deploy and codegen for one project layout.
type Pipeline struct {
	layout   *project.Layout
	runner   runner.ProcessRunner
	compiler *Compiler
	logger   *zap.Logger
	out      io.Writer
	lookup   LookupFunc
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOutput sets where progress lines are written.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

// WithEnv overrides environment lookup for deploy parameters.
func WithEnv(lookup LookupFunc) Option {
	return func(p *Pipeline) { p.lookup = lookup }
}

// WithClock overrides the clock used for deployment timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(layout *project.Layout, processRunner runner.ProcessRunner, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		layout:   layout,
		runner:   processRunner,
		compiler: NewCompiler(processRunner, layout.ContractsDir, logger),
		logger:   logger,
		out:      os.Stdout,
		lookup:   os.LookupEnv,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compiler exposes the compiler bound to this project's contracts directory.
func (p *Pipeline) Compiler() *Compiler {
	return p.compiler
}

// Rebuild runs the pipeline. It never returns an error: every failure is
// reported through the result so callers can offer recovery.
func (p *Pipeline) Rebuild(ctx context.Context, opts Options) RebuildResult {
	if !p.layout.HasContracts() {
		p.logger.Debug("no contracts directory, nothing to rebuild", zap.String("dir", p.layout.ContractsDir))
		return RebuildResult{BuildSuccess: true, DeploySuccess: true, CodegenSuccess: true}
	}

	p.report(lipgloss.Info, "🔨 Compiling contracts...")
	build := p.compiler.Build(ctx)
	if !build.Success {
		p.report(lipgloss.Red, "❌ Compilation failed")
		return RebuildResult{BuildErrors: build.ErrorText()}
	}
	p.report(lipgloss.Green, "✅ Contracts compiled")

	result := RebuildResult{BuildSuccess: true, DeploySuccess: true}
	if opts.Deploy {
		p.deploy(ctx, &result)
	}

	result.CodegenSuccess = p.codegen(ctx)
	return result
}

func (p *Pipeline) deploy(ctx context.Context, result *RebuildResult) {
	settings := p.layout.Settings
	scriptPath := p.layout.DeployScriptPath()

	source, err := os.ReadFile(scriptPath)
	if err != nil {
		p.report(lipgloss.Yellow, fmt.Sprintf("⚠️ Deploy script %s not found, skipping deployment", p.layout.Rel(scriptPath)))
		result.DeploySuccess = false
		result.DeploySkipped = true
		return
	}

	auto := AutoParams(settings.RPCURL)
	missing := MissingParams(RequiredParams(string(source)), auto, p.lookup)
	if len(missing) > 0 {
		p.report(lipgloss.Yellow, fmt.Sprintf("⚠️ Skipping deployment, missing environment parameters: %s", strings.Join(missing, ", ")))
		p.logger.Warn("deployment skipped", zap.Strings("missing", missing))
		result.DeploySuccess = false
		result.DeploySkipped = true
		result.MissingParams = missing
		return
	}

	privateKey := auto["PRIVATE_KEY"]
	if value, ok := p.lookup("PRIVATE_KEY"); ok && value != "" {
		privateKey = value
	}

	var env []string
	for _, name := range sortedKeys(auto) {
		if value, ok := p.lookup(name); !ok || value == "" {
			env = append(env, name+"="+auto[name])
		}
	}

	p.report(lipgloss.Info, "🚀 Deploying to local chain...")
	run, err := p.runner.Run(ctx, runner.Command{
		Name: forgeBinary,
		Args: []string{"script", p.layout.DeployScript, "--rpc-url", settings.RPCURL, "--broadcast", "--private-key", privateKey},
		Dir:  p.layout.ContractsDir,
		Env:  env,
	})
	if err != nil || !run.Success() {
		p.report(lipgloss.Red, "❌ Deployment failed")
		if run != nil {
			p.logger.Warn("deployment failed", zap.String("stderr", run.Stderr))
		} else {
			p.logger.Warn("deployment could not start", zap.Error(err))
		}
		result.DeploySuccess = false
		return
	}

	contracts, err := ReadBroadcast(BroadcastFile(p.layout.BroadcastDir, p.layout.DeployScript, settings.ChainID))
	if err != nil || len(contracts) == 0 {
		p.logger.Debug("broadcast record unavailable, parsing script output", zap.Error(err))
		contracts = ParseDeployOutput(run.Stdout)
	}

	if len(contracts) > 0 {
		if _, err := SaveDeployments(p.layout.Root, settings.ChainID, contracts, p.now()); err != nil {
			p.logger.Warn("failed to save deployment record", zap.Error(err))
		}
		for _, name := range sortedKeys(contracts) {
			p.report(lipgloss.Green, fmt.Sprintf("   %s → %s", name, contracts[name].Address))
		}
	}

	result.Deployments = contracts
	p.report(lipgloss.Green, "✅ Deployed")
}

func (p *Pipeline) codegen(ctx context.Context) bool {
	if !p.layout.HasFrontend() {
		p.logger.Debug("no frontend directory, skipping codegen")
		return true
	}

	fields := strings.Fields(p.layout.Settings.CodegenCommand)
	if len(fields) == 0 {
		return true
	}

	p.report(lipgloss.Info, "🧬 Generating frontend bindings...")
	run, err := p.runner.Run(ctx, runner.Command{Name: fields[0], Args: fields[1:], Dir: p.layout.FrontendDir})
	if err != nil || !run.Success() {
		p.report(lipgloss.Yellow, "⚠️ Binding generation failed")
		if run != nil {
			p.logger.Warn("codegen failed", zap.String("stderr", run.Stderr))
		} else {
			p.logger.Warn("codegen could not start", zap.Error(err))
		}
		return false
	}

	p.report(lipgloss.Green, "✅ Bindings generated")
	return true
}

type renderer interface {
	Render(strs ...string) string
}

func (p *Pipeline) report(style renderer, line string) {
	fmt.Fprintln(p.out, style.Render(line))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
