package core

import (
	"time"

	"github.com/hupe1980/devicemesh/diagnostic"
)

// ActionKind identifies the variant of an Action.
type ActionKind string

const (
	// ActionKindDiagnose queries and transforms target diagnostics.
	ActionKindDiagnose ActionKind = "diagnose"
	// ActionKindInstall installs an application bundle.
	ActionKindInstall ActionKind = "install"
	// ActionKindUninstall removes an installed application.
	ActionKindUninstall ActionKind = "uninstall"
	// ActionKindLaunchApp launches an installed application.
	ActionKindLaunchApp ActionKind = "launch_app"
	// ActionKindLaunchXCTest starts a test bundle run.
	ActionKindLaunchXCTest ActionKind = "launch_xctest"
	// ActionKindListApps enumerates installed applications.
	ActionKindListApps ActionKind = "list_apps"
	// ActionKindRecordStart begins a video recording session.
	ActionKindRecordStart ActionKind = "record_start"
	// ActionKindRecordStop ends the active video recording session.
	ActionKindRecordStop ActionKind = "record_stop"
	// ActionKindTerminate kills a running application.
	ActionKindTerminate ActionKind = "terminate"
	// ActionKindCustom is the catch-all for operations the dispatcher does
	// not recognize. Dispatching a custom action yields no runner.
	ActionKindCustom ActionKind = "custom"
)

// Action is an immutable, typed operation request against a Target. The set
// of variants is closed; ActionKindCustom is the single extension point and is
// deliberately left unimplemented by the dispatcher.
//
// Actions carry their own payload and may be rewritten (copied with a field
// forced) exactly once, by the dispatcher, before a runner is built. Runners
// never mutate actions.
type Action interface {
	// Kind returns the variant tag of this action.
	Kind() ActionKind
	// EventName returns the name identifying this action in events and in
	// unimplemented-action failure messages.
	EventName() EventName
	// Subject returns the reportable description of this action's payload.
	Subject() Subject

	isAction()
}

// AppLaunchConfig describes how to launch an installed application.
type AppLaunchConfig struct {
	BundleID    string            `json:"bundle_id"`
	Arguments   []string          `json:"arguments,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	// WaitForDebugger suspends the launched process until a debugger attaches.
	WaitForDebugger bool `json:"wait_for_debugger,omitempty"`
}

// TestLaunchConfig describes how to launch a test bundle against a target.
type TestLaunchConfig struct {
	BundlePath  string            `json:"bundle_path"`
	AppPath     string            `json:"app_path,omitempty"`
	TestsToRun  []string          `json:"tests_to_run,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	// InitializeUITesting prepares the session for UI testing. The
	// dispatcher currently forces this to true for every test launch; the
	// caller-supplied value is ignored.
	InitializeUITesting bool `json:"initialize_ui_testing,omitempty"`
	// Timeout bounds how long the dispatch call waits for the test run to
	// finish. Zero or negative means fire-and-forget: return as soon as the
	// session has started.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DiagnoseAction queries the target's diagnostics and transforms each match.
type DiagnoseAction struct {
	Query  diagnostic.Query  `json:"query"`
	Format diagnostic.Format `json:"format"`
}

// InstallAction installs the application bundle at Path.
type InstallAction struct {
	Path     string `json:"path"`
	CodeSign bool   `json:"codesign"`
}

// UninstallAction removes the application identified by BundleID.
type UninstallAction struct {
	BundleID string `json:"bundle_id"`
}

// LaunchAppAction launches an installed application.
type LaunchAppAction struct {
	Config AppLaunchConfig `json:"config"`
}

// LaunchXCTestAction starts a test bundle run.
type LaunchXCTestAction struct {
	Config TestLaunchConfig `json:"config"`
}

// ListAppsAction enumerates installed applications.
type ListAppsAction struct{}

// RecordStartAction begins video recording to Path. Starting while a
// recording is already active reuses the existing session.
type RecordStartAction struct {
	Path string `json:"path"`
}

// RecordStopAction ends the active video recording session.
type RecordStopAction struct{}

// TerminateAction kills the running application identified by BundleID.
type TerminateAction struct {
	BundleID string `json:"bundle_id"`
}

// CustomAction carries an operation the framework does not implement.
type CustomAction struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// Kind returns ActionKindDiagnose.
func (DiagnoseAction) Kind() ActionKind { return ActionKindDiagnose }

// Kind returns ActionKindInstall.
func (InstallAction) Kind() ActionKind { return ActionKindInstall }

// Kind returns ActionKindUninstall.
func (UninstallAction) Kind() ActionKind { return ActionKindUninstall }

// Kind returns ActionKindLaunchApp.
func (LaunchAppAction) Kind() ActionKind { return ActionKindLaunchApp }

// Kind returns ActionKindLaunchXCTest.
func (LaunchXCTestAction) Kind() ActionKind { return ActionKindLaunchXCTest }

// Kind returns ActionKindListApps.
func (ListAppsAction) Kind() ActionKind { return ActionKindListApps }

// Kind returns ActionKindRecordStart.
func (RecordStartAction) Kind() ActionKind { return ActionKindRecordStart }

// Kind returns ActionKindRecordStop.
func (RecordStopAction) Kind() ActionKind { return ActionKindRecordStop }

// Kind returns ActionKindTerminate.
func (TerminateAction) Kind() ActionKind { return ActionKindTerminate }

// Kind returns ActionKindCustom.
func (CustomAction) Kind() ActionKind { return ActionKindCustom }

// EventName returns the event name for diagnostic queries.
func (DiagnoseAction) EventName() EventName { return EventNameDiagnose }

// EventName returns the event name for installs.
func (InstallAction) EventName() EventName { return EventNameInstall }

// EventName returns the event name for uninstalls.
func (UninstallAction) EventName() EventName { return EventNameUninstall }

// EventName returns the event name for application launches.
func (LaunchAppAction) EventName() EventName { return EventNameLaunch }

// EventName returns the event name for test launches.
func (LaunchXCTestAction) EventName() EventName { return EventNameLaunchXCTest }

// EventName returns the event name for application listings.
func (ListAppsAction) EventName() EventName { return EventNameListApps }

// EventName returns the event name for recording starts.
func (RecordStartAction) EventName() EventName { return EventNameRecord }

// EventName returns the event name for recording stops.
func (RecordStopAction) EventName() EventName { return EventNameRecord }

// EventName returns the event name for application kills.
func (TerminateAction) EventName() EventName { return EventNameTerminate }

// EventName returns the custom action's own name.
func (a CustomAction) EventName() EventName { return EventName(a.Name) }

// Subject describes the query and format being applied.
func (a DiagnoseAction) Subject() Subject { return NewValueSubject(a) }

// Subject describes the bundle path being installed.
func (a InstallAction) Subject() Subject { return StringSubject(a.Path) }

// Subject describes the bundle being removed.
func (a UninstallAction) Subject() Subject { return StringSubject(a.BundleID) }

// Subject describes the launch configuration.
func (a LaunchAppAction) Subject() Subject { return NewValueSubject(a.Config) }

// Subject describes the test launch configuration.
func (a LaunchXCTestAction) Subject() Subject { return NewValueSubject(a.Config) }

// Subject is empty; listings report only their resulting value.
func (ListAppsAction) Subject() Subject { return StringSubject("") }

// Subject describes the recording destination.
func (a RecordStartAction) Subject() Subject { return NewValueSubject(a) }

// Subject is empty; stops report the action payload as a value.
func (RecordStopAction) Subject() Subject { return StringSubject("stop") }

// Subject describes the bundle being killed.
func (a TerminateAction) Subject() Subject { return StringSubject(a.BundleID) }

// Subject describes the custom payload.
func (a CustomAction) Subject() Subject { return NewValueSubject(a) }

func (DiagnoseAction) isAction()     {}
func (InstallAction) isAction()      {}
func (UninstallAction) isAction()    {}
func (LaunchAppAction) isAction()    {}
func (LaunchXCTestAction) isAction() {}
func (ListAppsAction) isAction()     {}
func (RecordStartAction) isAction()  {}
func (RecordStopAction) isAction()   {}
func (TerminateAction) isAction()    {}
func (CustomAction) isAction()       {}
