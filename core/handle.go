package core

// TerminationHandle represents a resource with an open lifetime, such as an
// active recording or a pending test session. A handle returned inside a
// Result is owned by the caller, who must eventually call Terminate or leak
// the underlying resource. Handles are safe to terminate exactly once;
// implementations decide whether repeated termination is an error.
type TerminationHandle interface {
	// Terminate stops the underlying operation and releases its resources.
	Terminate() error
	// HandleKind names the kind of resource the handle controls, for
	// logging and handle registries.
	HandleKind() string
}

// HandleFunc adapts a function into a TerminationHandle.
type HandleFunc struct {
	Kind string
	Fn   func() error
}

// NewHandleFunc creates a TerminationHandle from a termination function.
func NewHandleFunc(kind string, fn func() error) HandleFunc {
	return HandleFunc{Kind: kind, Fn: fn}
}

// Terminate invokes the wrapped function.
func (h HandleFunc) Terminate() error { return h.Fn() }

// HandleKind returns the handle's kind label.
func (h HandleFunc) HandleKind() string { return h.Kind }
