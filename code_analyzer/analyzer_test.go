package code_analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProcessFileJavascript(t *testing.T) {
	analyzer := NewCodeAnalyzer(t.TempDir(), nil, nil)
	src := []byte(`import { createConfig } from "wagmi";

function increment(n) { return n + 1 }

class Store {
  get() { return 1 }
}

const useCounter = () => increment(0);
`)

	parts := analyzer.ProcessFile("frontend/src/counter.js", src)
	assert.Contains(t, parts, "function: increment")
	assert.Contains(t, parts, "class: Store")
	assert.Contains(t, parts, "method: get")
	assert.Contains(t, parts, "arrow_function: useCounter")
	assert.Contains(t, parts, `import: "wagmi"`)
}

func TestProcessFileTypescript(t *testing.T) {
	analyzer := NewCodeAnalyzer(t.TempDir(), nil, nil)
	src := []byte(`export interface Deployment { address: string }
export type Address = string;
export function load(): Deployment { return { address: "" } }
`)

	parts := analyzer.ProcessFile("frontend/src/deployments.ts", src)
	assert.Contains(t, parts, "interface: Deployment")
	assert.Contains(t, parts, "type: Address")
	assert.Contains(t, parts, "function: load")
}

func TestProcessFileUnknownLanguage(t *testing.T) {
	analyzer := NewCodeAnalyzer(t.TempDir(), nil, nil)
	parts := analyzer.ProcessFile("README", []byte("# Title\nbody\n"))
	assert.Equal(t, []string{"README", "# Title"}, parts)
}

func TestGetProjectFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contracts/src/Counter.sol", "contract Counter {}\n")
	writeFile(t, root, "contracts/lib/forge-std/src/Test.sol", "contract Test {}\n")
	writeFile(t, root, "contracts/out/Counter.sol/Counter.json", "{}")
	writeFile(t, root, "frontend/node_modules/viem/index.js", "module.exports = {}")
	writeFile(t, root, "frontend/src/App.tsx", "export const App = () => null\n")
	writeFile(t, root, "frontend/src/big.ts", "export function huge() {}\n"+strings.Repeat("// filler line\n", 2000))
	writeFile(t, root, "notes/private.md", "secret")
	writeFile(t, root, ".dappai-ignore", "notes/\n")

	analyzer := NewCodeAnalyzer(root, NewSummaryCache(time.Minute, nil), nil, "contracts/lib")
	data, err := analyzer.GetProjectFiles(context.Background())
	require.NoError(t, err)

	paths := make(map[string]string)
	for _, file := range data.FileData {
		paths[file.RelativePath] = file.Code + file.Summary
	}

	assert.Contains(t, paths, "contracts/src/Counter.sol")
	assert.Contains(t, paths, "frontend/src/App.tsx")
	assert.NotContains(t, paths, "contracts/lib/forge-std/src/Test.sol")
	assert.NotContains(t, paths, "contracts/out/Counter.sol/Counter.json")
	assert.NotContains(t, paths, "frontend/node_modules/viem/index.js")
	assert.NotContains(t, paths, "notes/private.md")

	require.Contains(t, paths, "frontend/src/big.ts")
	assert.Contains(t, paths["frontend/src/big.ts"], "function: huge")

	text, err := analyzer.BuildContext(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "**File: contracts/src/Counter.sol**")
}

func TestGetProjectFilesHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contracts/src/A.sol", "contract A {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCodeAnalyzer(root, nil, nil).GetProjectFiles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResetCacheDropsSummaries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "frontend/src/big.ts", "export function huge() {}\n"+strings.Repeat("// filler line\n", 2000))

	cache := NewSummaryCache(time.Minute, nil)
	analyzer := NewCodeAnalyzer(root, cache, nil)
	_, err := analyzer.GetProjectFiles(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	analyzer.ResetCache()
	assert.Equal(t, 0, cache.Len())
}
