// Package project resolves the on-disk layout of a dapp project: the Foundry
// contracts workspace, the frontend and the deploy script.
package project

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/dappai/apperrors"
)

const (
	DefaultContractsDir   = "contracts"
	DefaultFrontendDir    = "frontend"
	DefaultDeployScript   = "script/Deploy.s.sol"
	DefaultCodegenCommand = "npx wagmi generate"
	DefaultRPCURL         = "http://127.0.0.1:8545"
	DefaultChainID        = 31337
)

// Settings is the project section of the configuration file.
type Settings struct {
	ContractsDir   string `mapstructure:"contracts_dir" yaml:"contracts_dir"`
	FrontendDir    string `mapstructure:"frontend_dir" yaml:"frontend_dir"`
	DeployScript   string `mapstructure:"deploy_script" yaml:"deploy_script"`
	CodegenCommand string `mapstructure:"codegen_command" yaml:"codegen_command"`
	RPCURL         string `mapstructure:"rpc_url" yaml:"rpc_url"`
	ChainID        uint64 `mapstructure:"chain_id" yaml:"chain_id"`
}

// DefaultSettings returns the layout produced by the project scaffolder.
func DefaultSettings() Settings {
	return Settings{
		ContractsDir:   DefaultContractsDir,
		FrontendDir:    DefaultFrontendDir,
		DeployScript:   DefaultDeployScript,
		CodegenCommand: DefaultCodegenCommand,
		RPCURL:         DefaultRPCURL,
		ChainID:        DefaultChainID,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.ContractsDir == "" {
		s.ContractsDir = d.ContractsDir
	}
	if s.FrontendDir == "" {
		s.FrontendDir = d.FrontendDir
	}
	if s.DeployScript == "" {
		s.DeployScript = d.DeployScript
	}
	if s.CodegenCommand == "" {
		s.CodegenCommand = d.CodegenCommand
	}
	if s.RPCURL == "" {
		s.RPCURL = d.RPCURL
	}
	if s.ChainID == 0 {
		s.ChainID = d.ChainID
	}
	return s
}

// Layout holds absolute paths for every directory the engine touches.
type Layout struct {
	Root         string
	ContractsDir string
	FrontendDir  string

	// Resolved from foundry.toml relative to ContractsDir.
	SourceDir    string
	ScriptDir    string
	BroadcastDir string
	// LibDirs hold vendored dependencies such as forge-std.
	LibDirs []string

	// DeployScript is relative to ContractsDir, as forge expects it.
	DeployScript string

	Settings Settings
}

// Resolve builds the layout for root. A missing or unreadable foundry.toml
// falls back to Foundry's default directory names.
func Resolve(root string, settings Settings) (*Layout, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	settings = settings.withDefaults()

	layout := &Layout{
		Root:         absRoot,
		ContractsDir: joinUnder(absRoot, settings.ContractsDir),
		FrontendDir:  joinUnder(absRoot, settings.FrontendDir),
		DeployScript: filepath.ToSlash(settings.DeployScript),
		Settings:     settings,
	}

	profile := DefaultFoundryProfile()
	if layout.HasContracts() {
		if p, err := ReadFoundryProfile(layout.ContractsDir, os.Getenv("FOUNDRY_PROFILE")); err == nil {
			profile = p
		}
	}
	layout.SourceDir = joinUnder(layout.ContractsDir, profile.Src)
	layout.ScriptDir = joinUnder(layout.ContractsDir, profile.Script)
	layout.BroadcastDir = joinUnder(layout.ContractsDir, profile.Broadcast)
	for _, lib := range profile.Libs {
		layout.LibDirs = append(layout.LibDirs, joinUnder(layout.ContractsDir, lib))
	}

	return layout, nil
}

// Validate reports a setup error when root is not a usable project directory.
func (l *Layout) Validate() error {
	info, err := os.Stat(l.Root)
	if err != nil {
		return apperrors.ErrInvalidProject(l.Root, "directory does not exist")
	}
	if !info.IsDir() {
		return apperrors.ErrInvalidProject(l.Root, "not a directory")
	}
	if !l.HasContracts() && !l.HasFrontend() {
		return apperrors.ErrInvalidProject(l.Root,
			"neither "+l.Settings.ContractsDir+"/ nor "+l.Settings.FrontendDir+"/ was found")
	}
	return nil
}

func (l *Layout) HasContracts() bool {
	return isDir(l.ContractsDir)
}

func (l *Layout) HasFrontend() bool {
	return isDir(l.FrontendDir)
}

// DeployScriptPath returns the absolute path of the deploy script.
func (l *Layout) DeployScriptPath() string {
	return joinUnder(l.ContractsDir, l.DeployScript)
}

// Rel returns path relative to the project root with forward slashes.
func (l *Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func joinUnder(base, p string) string {
	p = strings.TrimSpace(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, filepath.FromSlash(p))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
