package apperrors

import (
	"fmt"
	"io"
)

// ErrCancelled is returned by interactive prompts when the user aborts.
var ErrCancelled = New(Cancelled, "cancelled by user")

// ErrInputClosed is returned by Ask when standard input reaches EOF. It
// matches both ErrCancelled and io.EOF.
var ErrInputClosed = fmt.Errorf("%w: %w", ErrCancelled, io.EOF)

func ErrMissingCredential(path string) *Error {
	return Newf(Setup, "no stored credential found at %s", path).
		WithRemediation("Run `dappai login` to sign in and store a credential.")
}

func ErrMissingToolchain(binary string, cause error) *Error {
	return Wrap(Setup, fmt.Sprintf("%s is not installed or not on PATH", binary), cause).
		WithRemediation(toolchainRemediation(binary))
}

func ErrMissingContractsDir(path string) *Error {
	return Newf(Setup, "contracts directory %s does not exist", path).
		WithRemediation("Run dappai from the project root, or set project.contracts_dir in dappai-config.yaml.")
}

func ErrInvalidProject(path string, reason string) *Error {
	return Newf(Setup, "%s is not a valid project directory: %s", path, reason).
		WithRemediation("Run dappai from the root of a project that contains a contracts/ or frontend/ directory.")
}

func ErrProviderNotConfigured(provider string) *Error {
	return Newf(Setup, "AI provider %q is not configured", provider).
		WithRemediation("Set ai_provider_config.api_key in ~/.dappai/config.yaml or export DAPPAI_API_KEY.")
}

func ErrMalformedResponse(reason string) *Error {
	return Newf(MalformedResponse,
		"malformed model response: expected a JSON array of {\"path\": string, \"content\": string} objects (%s)", reason)
}

func ErrModelRequest(cause error) *Error {
	return Wrap(Transient, "model request failed", cause)
}

func ErrGit(args string, cause error) *Error {
	return Wrap(VersionControl, fmt.Sprintf("git %s failed", args), cause)
}

func toolchainRemediation(binary string) string {
	switch binary {
	case "forge", "anvil", "cast":
		return "Install Foundry: curl -L https://foundry.paradigm.xyz | bash && foundryup"
	case "git":
		return "Install git from https://git-scm.com/downloads"
	case "npx", "node":
		return "Install Node.js (which ships npx) from https://nodejs.org"
	default:
		return fmt.Sprintf("Install %s and make sure it is on your PATH.", binary)
	}
}
