package pipeline

import (
	"context"
	"sync"

	"github.com/meysamhadeli/dappai/runner"
)

type fakeRunner struct {
	mu       sync.Mutex
	commands []runner.Command
	respond  func(cmd runner.Command) (*runner.Result, error)
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()

	if f.respond == nil {
		return &runner.Result{}, nil
	}
	return f.respond(cmd)
}

func (f *fakeRunner) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.commands))
	for _, cmd := range f.commands {
		out = append(out, cmd.String())
	}
	return out
}

func (f *fakeRunner) ran(prefix string) bool {
	for _, call := range f.calls() {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
