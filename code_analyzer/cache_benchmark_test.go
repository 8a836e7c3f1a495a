package code_analyzer

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func sampleSources(n int) [][]byte {
	sources := make([][]byte, n)
	for i := range sources {
		sources[i] = []byte(fmt.Sprintf("export function handler%d() { return %d }\n%s", i, i, strings.Repeat("// padding\n", 200)))
	}
	return sources
}

func BenchmarkSummaryCacheGet(b *testing.B) {
	cache := NewSummaryCache(time.Hour, nil)
	sources := sampleSources(256)
	for _, src := range sources {
		cache.Set("typescript", src, []string{"function: handler"})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get("typescript", sources[i%len(sources)])
	}
}

func BenchmarkProcessFile_WithVsWithoutCache(b *testing.B) {
	analyzer := NewCodeAnalyzer(b.TempDir(), NewSummaryCache(time.Hour, nil), nil).(*CodeAnalyzer)
	src := sampleSources(1)[0]

	b.Run("Uncached", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			analyzer.ProcessFile("frontend/src/handler.ts", src)
		}
	})

	b.Run("Cached", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			analyzer.summarize("frontend/src/handler.ts", src)
		}
	})
}

func TestSummaryKeyConsistency(t *testing.T) {
	content := []byte("contract Counter {}")
	first := summaryKey("solidity", content)
	for i := 0; i < 100; i++ {
		if got := summaryKey("solidity", content); got != first {
			t.Fatalf("summary key changed between calls: %x != %x", got, first)
		}
	}
}
