package apperrors

// Kind classifies failures by how the caller is expected to react to them.
type Kind int

const (
	Unknown Kind = iota

	// Setup errors are fatal to the enclosing command and are never retried.
	Setup
	// Transient errors come from collaborators (model API, deploy subprocess)
	// and are recovered locally.
	Transient
	// MalformedResponse means a model reply did not contain a usable change set.
	MalformedResponse
	// CompileFailure means the contract compiler rejected the project.
	CompileFailure
	// VersionControl errors come from the git collaborator.
	VersionControl
	// Cancelled means the user aborted an interactive step.
	Cancelled
)

// Name returns a stable string identifier for the kind.
func (k Kind) Name() string {
	switch k {
	case Setup:
		return "SetupError"
	case Transient:
		return "TransientError"
	case MalformedResponse:
		return "MalformedResponse"
	case CompileFailure:
		return "CompileFailure"
	case VersionControl:
		return "VersionControlError"
	case Cancelled:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}
