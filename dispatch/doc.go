// Package dispatch implements the action-dispatch core of DeviceMesh. It maps
// each recognized action variant onto one of four runner shapes:
//
//   - simple: bracketed execution of a synchronous capability call
//   - handled: like simple, but the call may leave behind a termination handle
//   - diagnostics: query, transform and report target diagnostics
//   - unimplemented: deterministic failure for unrecognized actions
//
// Dispatch itself is a pure selection function; all side effects live inside
// the runner bodies. RunAction is the caller-level entry point that adds the
// unimplemented-action fallback on a dispatch miss.
package dispatch
