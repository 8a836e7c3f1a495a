package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/dappai/apperrors"
)

func TestResolveDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "contracts"), 0o755))

	layout, err := Resolve(root, Settings{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "contracts"), layout.ContractsDir)
	assert.Equal(t, filepath.Join(root, "contracts", "src"), layout.SourceDir)
	assert.Equal(t, filepath.Join(root, "contracts", "broadcast"), layout.BroadcastDir)
	assert.Equal(t, "script/Deploy.s.sol", layout.DeployScript)
	assert.Equal(t, []string{filepath.Join(root, "contracts", "lib")}, layout.LibDirs)
	assert.Equal(t, uint64(DefaultChainID), layout.Settings.ChainID)
	assert.True(t, layout.HasContracts())
	assert.False(t, layout.HasFrontend())
	assert.NoError(t, layout.Validate())
}

func TestResolveReadsFoundryProfile(t *testing.T) {
	root := t.TempDir()
	contracts := filepath.Join(root, "contracts")
	require.NoError(t, os.MkdirAll(contracts, 0o755))
	foundry := `
[profile.default]
src = "sol"
out = "artifacts"

[profile.ci]
broadcast = "runs"
`
	require.NoError(t, os.WriteFile(filepath.Join(contracts, FoundryConfigFile), []byte(foundry), 0o644))

	profile, err := ReadFoundryProfile(contracts, "ci")
	require.NoError(t, err)
	assert.Equal(t, "sol", profile.Src)
	assert.Equal(t, "artifacts", profile.Out)
	assert.Equal(t, "runs", profile.Broadcast)
	assert.Equal(t, "script", profile.Script)

	t.Setenv("FOUNDRY_PROFILE", "")
	layout, err := Resolve(root, Settings{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(contracts, "sol"), layout.SourceDir)
	assert.Equal(t, filepath.Join(contracts, "broadcast"), layout.BroadcastDir)
}

func TestReadFoundryProfileMissingFile(t *testing.T) {
	profile, err := ReadFoundryProfile(t.TempDir(), "")
	require.Error(t, err)
	assert.Equal(t, DefaultFoundryProfile(), profile)
}

func TestValidateRejectsEmptyDirectory(t *testing.T) {
	layout, err := Resolve(t.TempDir(), Settings{})
	require.NoError(t, err)

	err = layout.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.Setup))
	assert.NotEmpty(t, apperrors.RemediationOf(err))
}

func TestRel(t *testing.T) {
	root := t.TempDir()
	layout, err := Resolve(root, Settings{})
	require.NoError(t, err)
	assert.Equal(t, "contracts/src/A.sol", layout.Rel(filepath.Join(root, "contracts", "src", "A.sol")))
}
