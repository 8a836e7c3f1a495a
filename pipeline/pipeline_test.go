package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/project"
	"github.com/meysamhadeli/dappai/runner"
)

const deployScript = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.20;

import {Script, console} from "forge-std/Script.sol";
import {Counter} from "../src/Counter.sol";

contract Deploy is Script {
    function run() external {
        uint256 key = vm.envUint("PRIVATE_KEY");
        address owner = vm.envAddress( "OWNER_ADDRESS" );
        uint256 fee = vm.envOr("FEE", uint256(0));
        vm.startBroadcast(key);
        Counter counter = new Counter(owner, fee);
        console.log("Counter deployed to:", address(counter));
        vm.stopBroadcast();
    }
}
`

func newProject(t *testing.T, withContracts, withFrontend bool) *project.Layout {
	t.Helper()
	root := t.TempDir()
	if withContracts {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "contracts", "script"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "contracts", "script", "Deploy.s.sol"), []byte(deployScript), 0o644))
	}
	if withFrontend {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "frontend"), 0o755))
	}
	layout, err := project.Resolve(root, project.Settings{})
	require.NoError(t, err)
	return layout
}

func noEnv(string) (string, bool) { return "", false }

func TestRebuildWithoutContractsIsTrivial(t *testing.T) {
	layout := newProject(t, false, true)
	fake := &fakeRunner{}

	result := New(layout, fake, zap.NewNop(), WithOutput(io.Discard)).Rebuild(context.Background(), Options{Deploy: true})

	assert.True(t, result.BuildSuccess)
	assert.True(t, result.DeploySuccess)
	assert.True(t, result.CodegenSuccess)
	assert.Empty(t, fake.calls())
}

func TestRebuildStopsOnCompileFailure(t *testing.T) {
	layout := newProject(t, true, true)
	fake := &fakeRunner{respond: func(cmd runner.Command) (*runner.Result, error) {
		return &runner.Result{ExitCode: 1, Stderr: "Error (2314): Expected ';'\n"}, nil
	}}

	result := New(layout, fake, zap.NewNop(), WithOutput(io.Discard)).Rebuild(context.Background(), Options{Deploy: true})

	assert.False(t, result.BuildSuccess)
	assert.False(t, result.CodegenSuccess)
	assert.Equal(t, "Error (2314): Expected ';'", result.BuildErrors)
	assert.Equal(t, []string{"forge build"}, fake.calls())
}

func TestBuildErrorFallsBackToGenericMessage(t *testing.T) {
	assert.Equal(t, "Compilation failed", BuildResult{Stdout: "noise"}.ErrorText())
	assert.Equal(t, "", BuildResult{Success: true}.ErrorText())
}

func TestRebuildSkipsDeployForMissingParamButStillRunsCodegen(t *testing.T) {
	for _, codegenExit := range []int{0, 1} {
		layout := newProject(t, true, true)
		fake := &fakeRunner{respond: func(cmd runner.Command) (*runner.Result, error) {
			if cmd.Name == "npx" {
				return &runner.Result{ExitCode: codegenExit}, nil
			}
			return &runner.Result{}, nil
		}}

		result := New(layout, fake, zap.NewNop(), WithOutput(io.Discard), WithEnv(noEnv)).
			Rebuild(context.Background(), Options{Deploy: true})

		assert.True(t, result.BuildSuccess)
		assert.False(t, result.DeploySuccess)
		assert.True(t, result.DeploySkipped)
		assert.Equal(t, []string{"OWNER_ADDRESS"}, result.MissingParams)
		assert.Equal(t, codegenExit == 0, result.CodegenSuccess)
		assert.False(t, fake.ran("forge script"))
		assert.True(t, fake.ran("npx wagmi generate"))
	}
}

func TestRebuildDeploysAndRecordsFromStdout(t *testing.T) {
	layout := newProject(t, true, false)
	env := func(key string) (string, bool) {
		if key == "OWNER_ADDRESS" {
			return "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", true
		}
		return "", false
	}
	fake := &fakeRunner{respond: func(cmd runner.Command) (*runner.Result, error) {
		if len(cmd.Args) > 0 && cmd.Args[0] == "script" {
			return &runner.Result{Stdout: "== Logs ==\n  Counter deployed to: 0x5FbDB2315678afecb367f032d93F642f64180aa3\n"}, nil
		}
		return &runner.Result{}, nil
	}}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	result := New(layout, fake, zap.NewNop(), WithOutput(io.Discard), WithEnv(env), WithClock(func() time.Time { return now })).
		Rebuild(context.Background(), Options{Deploy: true})

	assert.True(t, result.DeploySuccess)
	assert.True(t, result.CodegenSuccess)
	require.Contains(t, result.Deployments, "Counter")

	record, err := LoadRecord(layout.Root, 31337)
	require.NoError(t, err)
	assert.Equal(t, "Anvil Local", record.ChainName)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", record.Contracts["Counter"].Address)
	assert.Equal(t, "2025-03-01T12:00:00Z", record.LastDeployedAt)

	var deployCmd runner.Command
	for _, cmd := range fake.commands {
		if len(cmd.Args) > 0 && cmd.Args[0] == "script" {
			deployCmd = cmd
		}
	}
	assert.Contains(t, deployCmd.Env, "PRIVATE_KEY="+AnvilPrivateKey)
	assert.Contains(t, deployCmd.Args, "http://127.0.0.1:8545")
}

func TestRebuildWithoutDeployStillRunsCodegen(t *testing.T) {
	layout := newProject(t, true, true)
	fake := &fakeRunner{}

	result := New(layout, fake, zap.NewNop(), WithOutput(io.Discard)).Rebuild(context.Background(), Options{})

	assert.True(t, result.BuildSuccess)
	assert.True(t, result.DeploySuccess)
	assert.True(t, result.CodegenSuccess)
	assert.Equal(t, []string{"forge build", "npx wagmi generate"}, fake.calls())
}
