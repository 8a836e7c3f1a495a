// Package changeset turns a model reply into whole-file edits and writes them.
//
// The model is asked for complete file contents rather than patches, so there
// is no hunk matching and no partially applied state.
package changeset

import (
	"path/filepath"
	"strings"
)

// ChangeEntry is one whole-file edit proposed by the model.
type ChangeEntry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	// IsNew is resolved from the filesystem by Preview, never taken from the model.
	IsNew bool `json:"-"`
}

// ContractExtensions lists source extensions that require a rebuild.
var ContractExtensions = []string{".sol"}

// TouchesContracts reports whether any entry edits a contract source file.
func TouchesContracts(entries []ChangeEntry) bool {
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Path))
		for _, contractExt := range ContractExtensions {
			if ext == contractExt {
				return true
			}
		}
	}
	return false
}

// Paths returns the entry paths in order.
func Paths(entries []ChangeEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.Path)
	}
	return paths
}
