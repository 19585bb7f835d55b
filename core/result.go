package core

import "fmt"

// Result is the terminal outcome of running a Runner: success with an
// optional reportable subject, or failure with a human-readable message,
// plus zero or more termination handles whose ownership passes to the
// caller. Handles are only ever present on success of handle-producing
// actions (recording, test execution).
type Result struct {
	Success bool
	Subject Subject
	Error   string
	Handles []TerminationHandle
}

// SuccessResult creates a payload-free success.
func SuccessResult() Result {
	return Result{Success: true}
}

// SubjectResult creates a success carrying a reportable subject.
func SubjectResult(subject Subject) Result {
	return Result{Success: true, Subject: subject}
}

// FailureResult creates a failure with the given message.
func FailureResult(message string) Result {
	return Result{Success: false, Error: message}
}

// FailureResultf creates a failure with a formatted message.
func FailureResultf(format string, args ...any) Result {
	return FailureResult(fmt.Sprintf(format, args...))
}

// WithHandle returns a copy of the result with the handle appended. Nil
// handles are ignored so optional-handle paths need no branching.
func (r Result) WithHandle(handle TerminationHandle) Result {
	if handle == nil {
		return r
	}
	next := r
	next.Handles = append(append([]TerminationHandle(nil), r.Handles...), handle)
	return next
}

// TerminateAll stops every handle carried by the result, returning the first
// termination error encountered. Convenience for callers that do not keep
// handles alive past the dispatch.
func (r Result) TerminateAll() error {
	var first error
	for _, h := range r.Handles {
		if err := h.Terminate(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
