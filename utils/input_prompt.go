package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/constants/lipgloss"
)

// TerminalPrompter reads free text line by line and uses pterm for
// confirmations and menus.
type TerminalPrompter struct {
	reader *bufio.Reader
	out    io.Writer

	// pending is a line read still in flight from an interrupted Ask. The
	// next Ask receives it instead of starting a second reader.
	pending chan lineResult

	mu        sync.Mutex
	interrupt chan struct{}
}

// NewTerminalPrompter creates a prompter reading from in and writing prompts to out.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &TerminalPrompter{reader: bufio.NewReader(in), out: out}
}

type lineResult struct {
	line string
	err  error
}

// Interrupt aborts a waiting Ask with ErrCancelled. It reports whether an Ask
// was waiting, so the caller can treat the interrupt as a whole-program
// cancel otherwise.
func (p *TerminalPrompter) Interrupt() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.interrupt == nil {
		return false
	}
	close(p.interrupt)
	p.interrupt = nil
	return true
}

// Ask prints question and reads one line. Context cancellation and Interrupt
// return ErrCancelled, EOF returns ErrInputClosed.
func (p *TerminalPrompter) Ask(ctx context.Context, question string) (string, error) {
	if question != "" {
		fmt.Fprintln(p.out, lipgloss.Info.Render(question))
	}
	fmt.Fprint(p.out, lipgloss.BlueSky.Render("> "))

	interrupt := make(chan struct{})
	p.mu.Lock()
	p.interrupt = interrupt
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		if p.interrupt == interrupt {
			p.interrupt = nil
		}
		p.mu.Unlock()
	}()

	if p.pending == nil {
		resultChan := make(chan lineResult, 1)
		go func() {
			line, err := p.reader.ReadString('\n')
			resultChan <- lineResult{line: line, err: err}
		}()
		p.pending = resultChan
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", apperrors.ErrCancelled
	case <-interrupt:
		fmt.Fprintln(p.out)
		return "", apperrors.ErrCancelled
	case result := <-p.pending:
		p.pending = nil
		if result.err != nil {
			if errors.Is(result.err, io.EOF) {
				if result.line != "" {
					return strings.TrimSpace(result.line), nil
				}
				return "", apperrors.ErrInputClosed
			}
			return "", fmt.Errorf("error reading input: %w", result.err)
		}
		return strings.TrimSpace(result.line), nil
	}
}

// Confirm asks a yes/no question.
func (p *TerminalPrompter) Confirm(ctx context.Context, question string, defaultValue bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperrors.ErrCancelled
	}

	interrupted := false
	answer, err := pterm.DefaultInteractiveConfirm.
		WithDefaultText(question).
		WithDefaultValue(defaultValue).
		WithOnInterruptFunc(func() { interrupted = true }).
		Show()
	if interrupted {
		return false, apperrors.ErrCancelled
	}
	if err != nil {
		return false, err
	}
	return answer, nil
}

// Select shows a menu and returns the index of the chosen option.
func (p *TerminalPrompter) Select(ctx context.Context, question string, options []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, apperrors.ErrCancelled
	}
	if len(options) == 0 {
		return -1, fmt.Errorf("no options to select from")
	}

	interrupted := false
	choice, err := pterm.DefaultInteractiveSelect.
		WithDefaultText(question).
		WithOptions(options).
		WithMaxHeight(min(len(options), 10)).
		WithOnInterruptFunc(func() { interrupted = true }).
		Show()
	if interrupted {
		return -1, apperrors.ErrCancelled
	}
	if err != nil {
		return -1, err
	}

	for i, option := range options {
		if option == choice {
			return i, nil
		}
	}
	return -1, apperrors.ErrCancelled
}
