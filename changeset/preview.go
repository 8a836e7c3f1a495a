package changeset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/utils"
)

// previewLines is how many lines of a new file are shown before the total.
const previewLines = 10

// Summary describes what applying one entry would do.
type Summary struct {
	Path    string
	IsNew   bool
	Lines   int
	Added   int
	Removed int
	Changed int
}

// Summarize resolves IsNew for every entry from the filesystem and computes
// line-level counts against the current file contents.
func Summarize(root string, entries []ChangeEntry) []Summary {
	summaries := make([]Summary, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		current, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(entry.Path)))
		if err != nil {
			entry.IsNew = true
			summaries = append(summaries, Summary{
				Path:  entry.Path,
				IsNew: true,
				Lines: countLines(entry.Content),
			})
			continue
		}

		entry.IsNew = false
		added, removed, changed := LineChanges(string(current), entry.Content)
		summaries = append(summaries, Summary{
			Path:    entry.Path,
			Lines:   countLines(entry.Content),
			Added:   added,
			Removed: removed,
			Changed: changed,
		})
	}
	return summaries
}

// Preview prints a summary of every entry to w: the head of each new file and
// added/removed/changed counts for each modified one.
func Preview(w io.Writer, root string, entries []ChangeEntry, theme string) []Summary {
	summaries := Summarize(root, entries)

	for i, summary := range summaries {
		if summary.IsNew {
			fmt.Fprintln(w, lipgloss.Added.Render(fmt.Sprintf("+ new file %s", summary.Path)))
			head := firstLines(entries[i].Content, previewLines)
			if err := utils.HighlightCode(w, head, utils.GetSupportedLanguage(summary.Path), theme); err != nil {
				fmt.Fprintln(w, head)
			}
			if summary.Lines > previewLines {
				fmt.Fprintln(w, lipgloss.Gray.Render(fmt.Sprintf("  ... (%d lines total)", summary.Lines)))
			} else {
				fmt.Fprintln(w, lipgloss.Gray.Render(fmt.Sprintf("  (%d lines total)", summary.Lines)))
			}
			continue
		}

		if summary.Added == 0 && summary.Removed == 0 && summary.Changed == 0 {
			fmt.Fprintln(w, lipgloss.Gray.Render(fmt.Sprintf("= %s (unchanged)", summary.Path)))
			continue
		}

		fmt.Fprintf(w, "%s %s  %s %s %s\n",
			lipgloss.Changed.Render("~"),
			summary.Path,
			lipgloss.Added.Render(fmt.Sprintf("+%d", summary.Added)),
			lipgloss.Removed.Render(fmt.Sprintf("-%d", summary.Removed)),
			lipgloss.Changed.Render(fmt.Sprintf("~%d", summary.Changed)),
		)
	}

	return summaries
}

// LineChanges counts added, removed and changed lines between two texts. Within
// each contiguous edit, paired removals and insertions count as changes.
func LineChanges(before, after string) (added, removed, changed int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var groupAdded, groupRemoved int
	flush := func() {
		paired := min(groupAdded, groupRemoved)
		changed += paired
		added += groupAdded - paired
		removed += groupRemoved - paired
		groupAdded, groupRemoved = 0, 0
	}

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			groupAdded += countLines(diff.Text)
		case diffmatchpatch.DiffDelete:
			groupRemoved += countLines(diff.Text)
		case diffmatchpatch.DiffEqual:
			flush()
		}
	}
	flush()

	return added, removed, changed
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func firstLines(text string, n int) string {
	lines := strings.SplitN(text, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
