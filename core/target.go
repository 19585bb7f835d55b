package core

import (
	"context"
	"time"

	"github.com/hupe1980/devicemesh/diagnostic"
)

// InstalledApplication describes one application present on a target.
type InstalledApplication struct {
	BundleID    string `json:"bundle_id"`
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	InstallType string `json:"install_type,omitempty"`
}

// TestSession is the handle for an in-flight test run. Beyond termination it
// supports waiting for the run to complete.
type TestSession interface {
	TerminationHandle

	// WaitUntilFinished blocks until the test run completes or the timeout
	// elapses, whichever comes first. A non-positive timeout must not be
	// passed here; fire-and-forget launches simply skip the wait.
	WaitUntilFinished(timeout time.Duration) error
}

// Target is the capability surface of the device or simulator an action acts
// on. The dispatcher never looks past this interface; everything behind it
// (process management, device state, virtualization) belongs to the target
// implementation.
//
// Methods that begin an operation with an open lifetime (StartTest,
// StartRecording) return handles; everything else completes synchronously.
// Errors returned from capability calls should be categorized via DeviceError
// so failure messages stay descriptive.
type Target interface {
	// UDID returns the unique device identifier.
	UDID() string
	// Name returns the human-readable device name.
	Name() string
	// Description returns a one-line description used in failure messages.
	Description() string

	InstallApplication(ctx context.Context, path string, codesign bool) error
	UninstallApplication(ctx context.Context, bundleID string) error
	LaunchApplication(ctx context.Context, config AppLaunchConfig) error
	KillApplication(ctx context.Context, bundleID string) error
	StartTest(ctx context.Context, config TestLaunchConfig) (TestSession, error)
	StartRecording(ctx context.Context, path string) (TerminationHandle, error)
	StopRecording(ctx context.Context) error
	ListInstalledApplications(ctx context.Context) ([]InstalledApplication, error)
	QueryDiagnostics(ctx context.Context, query diagnostic.Query) ([]diagnostic.Diagnostic, error)
}
