// Package core provides the foundational domain types and interfaces used by
// DeviceMesh. It defines the core abstractions for:
//
//   - Actions (immutable, typed operation requests against a target)
//   - Targets (the capability surface of a device or simulator)
//   - Reporters (sinks for structured lifecycle events)
//   - Runners (single-shot units of execution producing a Result)
//   - Termination handles (open-lifetime resources the caller must stop)
//
// The package intentionally keeps implementation concerns (dispatch logic,
// concrete targets, reporter backends) out of scope, exposing small interfaces
// to enable custom backends and extensions. All exported identifiers include
// concise documentation to aid discoverability and external consumption.
package core
