package changeset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/dappai/apperrors"
)

func TestParseEmptyArrayIsNoChange(t *testing.T) {
	entries, err := Parse("[]")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseRejectsNonJSON(t *testing.T) {
	_, err := Parse("not json")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.MalformedResponse))
	assert.Contains(t, err.Error(), `"path"`)
}

func TestParseFencedBlock(t *testing.T) {
	reply := "```json\n[{\"path\": \"contracts/src/Counter.sol\", \"content\": \"pragma solidity ^0.8.20;\\n\"}]\n```\n\nBumped the pragma."

	entries, explanation, err := ParseWithExplanation(reply)
	require.NoError(t, err)

	want := []ChangeEntry{{Path: "contracts/src/Counter.sol", Content: "pragma solidity ^0.8.20;\n"}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Bumped the pragma.", explanation)
}

func TestParseProseAroundArray(t *testing.T) {
	reply := `Sure, here you go [see below]: [{"path": "a.txt", "content": "A"}, {"path": "b/c.txt", "content": ""}] Let me know if anything else is needed.`

	entries, explanation, err := ParseWithExplanation(reply)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Path)
	assert.Equal(t, "b/c.txt", entries[1].Path)
	assert.Equal(t, "", entries[1].Content)
	assert.False(t, entries[0].IsNew)
	assert.Equal(t, "Let me know if anything else is needed.", explanation)
}

func TestParseRejectsInvalidElements(t *testing.T) {
	tests := map[string]string{
		"missing content": `[{"path": "a.sol"}]`,
		"missing path":    `[{"content": "x"}]`,
		"non string path": `[{"path": 3, "content": "x"}]`,
		"scalar element":  `[1, 2]`,
		"empty path":      `[{"path": " ", "content": "x"}]`,
		"escaping path":   `[{"path": "../outside.sol", "content": "x"}]`,
		"absolute path":   `[{"path": "/etc/hosts", "content": "x"}]`,
	}

	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(reply)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.MalformedResponse))
		})
	}
}

func TestParseUnterminatedArray(t *testing.T) {
	_, err := Parse(`[{"path": "a.sol", "content": "x"`)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.MalformedResponse))
}

func TestParseTruncatedReplyWithSolidityArrays(t *testing.T) {
	reply := `[{"path": "contracts/src/A.sol", "content": "contract A { uint256[] public xs; function f() public { xs.push(1);`

	entries, _, err := ParseWithExplanation(reply)
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.True(t, apperrors.IsKind(err, apperrors.MalformedResponse))
}

func TestParseProseWithArrayTypes(t *testing.T) {
	reply := "Declare the parameter as `address[] memory owners` and pass it to the constructor; owners[0] becomes the admin."

	_, _, err := ParseWithExplanation(reply)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.MalformedResponse))
}

func TestParseLaterEmptyArrayIsNotAChangeSet(t *testing.T) {
	_, _, err := ParseWithExplanation("Options [a or b] were considered: [] ")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.MalformedResponse))
}

func TestParseArrayAfterAsideSkipsBracketsInStrings(t *testing.T) {
	reply := "Here [see notes]: [{\"path\": \"contracts/src/A.sol\", \"content\": \"uint256[] xs;\"}]\nAdded storage."

	entries, explanation, err := ParseWithExplanation(reply)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "uint256[] xs;", entries[0].Content)
	assert.Equal(t, "Added storage.", explanation)
}

func TestLineChanges(t *testing.T) {
	added, removed, changed := LineChanges("a\nb\nc\n", "a\nB\nc\nd\n")
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, changed)

	added, removed, changed = LineChanges("a\nb\nc\n", "a\n")
	assert.Equal(t, 0, added)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, changed)

	added, removed, changed = LineChanges("same\n", "same\n")
	assert.Zero(t, added+removed+changed)
}

func TestPreviewResolvesIsNewFromDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "existing.sol"), []byte("one\ntwo\n"), 0o644))

	entries := []ChangeEntry{
		{Path: "existing.sol", Content: "one\nTWO\n", IsNew: true},
		{Path: "src/New.sol", Content: "l1\nl2\nl3\n"},
	}

	var out bytes.Buffer
	summaries := Preview(&out, root, entries, "")

	assert.False(t, entries[0].IsNew)
	assert.True(t, entries[1].IsNew)
	require.Len(t, summaries, 2)
	assert.Equal(t, 1, summaries[0].Changed)
	assert.Equal(t, 3, summaries[1].Lines)
	assert.Contains(t, out.String(), "src/New.sol")
	assert.Contains(t, out.String(), "3 lines total")
}

func TestApplyCreatesDirectoriesAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	entries := []ChangeEntry{{Path: "contracts/src/deep/Token.sol", Content: "contract Token {}\n"}}

	require.NoError(t, Apply(root, entries))
	require.NoError(t, Apply(root, entries))

	got, err := os.ReadFile(filepath.Join(root, "contracts", "src", "deep", "Token.sol"))
	require.NoError(t, err)
	assert.Equal(t, "contract Token {}\n", string(got))
}

func TestTouchesContracts(t *testing.T) {
	assert.True(t, TouchesContracts([]ChangeEntry{{Path: "frontend/a.ts"}, {Path: "contracts/src/A.SOL"}}))
	assert.False(t, TouchesContracts([]ChangeEntry{{Path: "frontend/a.ts"}}))
	assert.False(t, TouchesContracts(nil))
}
