package utils

import (
	"path/filepath"
	"strings"
)

var extensionLanguages = map[string]string{
	".sol":  "solidity",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".json": "json",
	".toml": "toml",
	".yaml": "yaml",
	".yml":  "yaml",
	".md":   "markdown",
	".css":  "css",
	".html": "html",
	".sh":   "bash",
	".go":   "go",
}

// GetSupportedLanguage maps a file path to the language name used by the
// highlighter and the tree-sitter summariser. Unknown extensions return "".
func GetSupportedLanguage(filePath string) string {
	return extensionLanguages[strings.ToLower(filepath.Ext(filePath))]
}
