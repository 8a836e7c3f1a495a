package utils

import "context"

// Prompter asks the user for input. Every method returns apperrors.ErrCancelled
// when the user aborts the prompt.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
	Confirm(ctx context.Context, question string, defaultValue bool) (bool, error)
	Select(ctx context.Context, question string, options []string) (int, error)
}
