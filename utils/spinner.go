package utils

import (
	"time"

	"github.com/pterm/pterm"
)

// SpinFunc shows progress for a blocking step and returns a function that stops it.
type SpinFunc func(text string) (stop func())

// NoSpin is a SpinFunc that shows nothing.
func NoSpin(string) func() { return func() {} }

// TerminalSpinner is the pterm SpinFunc used on an interactive terminal.
func TerminalSpinner(text string) func() {
	spinner, err := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100 * time.Millisecond).
		WithRemoveWhenDone(true).
		Start(text)
	if err != nil {
		return func() {}
	}
	return func() { _ = spinner.Stop() }
}
