package changeset

import (
	"fmt"
	"os"
	"path/filepath"
)

// Apply writes every entry under root, creating parent directories as needed.
// Content is written verbatim, so applying the same set twice is a no-op.
func Apply(root string, entries []ChangeEntry) error {
	for _, entry := range entries {
		target := filepath.Join(root, filepath.FromSlash(entry.Path))

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", entry.Path, err)
		}

		if err := os.WriteFile(target, []byte(entry.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", entry.Path, err)
		}
	}
	return nil
}
