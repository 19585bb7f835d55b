package testutil

import (
	"context"
	"time"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/diagnostic"
)

// StubTarget is a configurable core.Target double. Each capability delegates
// to the corresponding function field when set and succeeds as a no-op
// otherwise. Example:
//
//	target := testutil.NewStubTarget("UDID-1")
//	target.InstallFn = func(path string, codesign bool) error { ... }
type StubTarget struct {
	DeviceUDID string
	DeviceName string

	InstallFn   func(path string, codesign bool) error
	UninstallFn func(bundleID string) error
	LaunchFn    func(config core.AppLaunchConfig) error
	KillFn      func(bundleID string) error
	StartTestFn func(config core.TestLaunchConfig) (core.TestSession, error)
	RecordFn    func(path string) (core.TerminationHandle, error)
	StopRecFn   func() error
	ListAppsFn  func() ([]core.InstalledApplication, error)
	DiagnoseFn  func(query diagnostic.Query) ([]diagnostic.Diagnostic, error)
}

// NewStubTarget creates a StubTarget with the given UDID.
func NewStubTarget(udid string) *StubTarget {
	return &StubTarget{DeviceUDID: udid}
}

// UDID returns the configured device identifier.
func (t *StubTarget) UDID() string { return t.DeviceUDID }

// Name returns the configured device name.
func (t *StubTarget) Name() string { return t.DeviceName }

// Description returns the device name when set, else the UDID.
func (t *StubTarget) Description() string {
	if t.DeviceName != "" {
		return t.DeviceName
	}
	return t.DeviceUDID
}

// InstallApplication delegates to InstallFn.
func (t *StubTarget) InstallApplication(_ context.Context, path string, codesign bool) error {
	if t.InstallFn != nil {
		return t.InstallFn(path, codesign)
	}
	return nil
}

// UninstallApplication delegates to UninstallFn.
func (t *StubTarget) UninstallApplication(_ context.Context, bundleID string) error {
	if t.UninstallFn != nil {
		return t.UninstallFn(bundleID)
	}
	return nil
}

// LaunchApplication delegates to LaunchFn.
func (t *StubTarget) LaunchApplication(_ context.Context, config core.AppLaunchConfig) error {
	if t.LaunchFn != nil {
		return t.LaunchFn(config)
	}
	return nil
}

// KillApplication delegates to KillFn.
func (t *StubTarget) KillApplication(_ context.Context, bundleID string) error {
	if t.KillFn != nil {
		return t.KillFn(bundleID)
	}
	return nil
}

// StartTest delegates to StartTestFn, defaulting to an immediately finished
// session.
func (t *StubTarget) StartTest(_ context.Context, config core.TestLaunchConfig) (core.TestSession, error) {
	if t.StartTestFn != nil {
		return t.StartTestFn(config)
	}
	return &StubTestSession{}, nil
}

// StartRecording delegates to RecordFn, defaulting to a no-op handle.
func (t *StubTarget) StartRecording(_ context.Context, path string) (core.TerminationHandle, error) {
	if t.RecordFn != nil {
		return t.RecordFn(path)
	}
	return core.NewHandleFunc("video_recording", func() error { return nil }), nil
}

// StopRecording delegates to StopRecFn.
func (t *StubTarget) StopRecording(_ context.Context) error {
	if t.StopRecFn != nil {
		return t.StopRecFn()
	}
	return nil
}

// ListInstalledApplications delegates to ListAppsFn.
func (t *StubTarget) ListInstalledApplications(_ context.Context) ([]core.InstalledApplication, error) {
	if t.ListAppsFn != nil {
		return t.ListAppsFn()
	}
	return nil, nil
}

// QueryDiagnostics delegates to DiagnoseFn.
func (t *StubTarget) QueryDiagnostics(_ context.Context, query diagnostic.Query) ([]diagnostic.Diagnostic, error) {
	if t.DiagnoseFn != nil {
		return t.DiagnoseFn(query)
	}
	return nil, nil
}

// StubTestSession is a core.TestSession double recording how it was used.
type StubTestSession struct {
	Terminated bool
	Waited     bool
	WaitErr    error
}

// Terminate records the call.
func (s *StubTestSession) Terminate() error {
	s.Terminated = true
	return nil
}

// HandleKind identifies the stub as a test run.
func (s *StubTestSession) HandleKind() string { return "test_run" }

// WaitUntilFinished records the call and returns WaitErr.
func (s *StubTestSession) WaitUntilFinished(time.Duration) error {
	s.Waited = true
	return s.WaitErr
}
