// Package simulator provides a core.Target implementation backed by the
// Xcode command line tools: application lifecycle and recording through
// `xcrun simctl`, test execution through `xcodebuild`. All external process
// invocations go through a small command-runner seam so tests can substitute
// fakes.
//
// One Target assumes at most one in-flight dispatch at a time, matching the
// framework's scheduling model; the recording session state is still guarded
// because its handle may be terminated from another goroutine.
package simulator
