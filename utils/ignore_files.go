package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// IgnoreFileName lists extra project-specific patterns to keep out of the model context.
const IgnoreFileName = ".dappai-ignore"

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// defaultIgnoredNames are path segments that are never sent to the model.
var defaultIgnoredNames = map[string]bool{
	".git":              true,
	".svn":              true,
	".idea":             true,
	".vscode":           true,
	".dappai":           true,
	".cache":            true,
	".next":             true,
	".turbo":            true,
	"node_modules":      true,
	"out":               true,
	"cache":             true,
	"broadcast":         true,
	"artifacts":         true,
	"typechain":         true,
	"dist":              true,
	"build":             true,
	"coverage":          true,
	".env":              true,
	".env.local":        true,
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	"yarn.lock":         true,
}

// defaultIgnoredSuffixes are file suffixes that are never sent to the model.
var defaultIgnoredSuffixes = []string{
	".log", ".tmp", ".bak", ".exe", ".dll", ".so", ".dylib",
	".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg", ".webp",
	".mp3", ".mp4", ".wav", ".mov", ".woff", ".woff2", ".ttf",
	".lock", ".pem", ".key",
}

// GetIgnorePatterns reads the patterns from .dappai-ignore under cwd. A
// missing file yields an empty list.
func GetIgnorePatterns(cwd string) ([]string, error) {
	ignorePath := filepath.Join(cwd, IgnoreFileName)

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists && fileInfo.ModTime().Equal(cached.modTime) {
		cacheMutex.RUnlock()
		return cached.patterns, nil
	}
	cacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{patterns: patterns, modTime: fileInfo.ModTime()}
	cacheMutex.Unlock()

	return patterns, nil
}

// IsDefaultIgnored reports whether a slash-separated relative path contains a
// segment or suffix that is always excluded.
func IsDefaultIgnored(relativePath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relativePath), "/") {
		if defaultIgnoredNames[strings.ToLower(part)] {
			return true
		}
	}
	lower := strings.ToLower(relativePath)
	for _, suffix := range defaultIgnoredSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func readIgnoreFile(ignorePath string) ([]string, error) {
	content, err := os.ReadFile(ignorePath)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// IsIgnored checks a slash-separated relative path against ignore patterns.
// Patterns without a slash match any single segment; "dir/" ignores a subtree.
func IsIgnored(relativePath string, patterns []string) bool {
	relativePath = filepath.ToSlash(relativePath)
	segments := strings.Split(relativePath, "/")

	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") {
			dir := strings.TrimSuffix(pattern, "/")
			if relativePath == dir || strings.HasPrefix(relativePath, pattern) {
				return true
			}
			continue
		}
		if match, _ := path.Match(pattern, relativePath); match {
			return true
		}
		if !strings.Contains(pattern, "/") {
			for _, segment := range segments {
				if match, _ := path.Match(pattern, segment); match {
					return true
				}
			}
		}
	}
	return false
}

// ClearIgnoreCache clears all cached ignore patterns
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
