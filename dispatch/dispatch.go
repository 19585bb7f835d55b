package dispatch

import (
	"context"

	"github.com/hupe1980/devicemesh/core"
)

// Dispatch selects and builds the runner for an action bound to a target and
// reporter. It performs no side effects itself; ctx is captured into the
// runner's wrapped operation. The second return value is false when the
// action variant is unrecognized, in which case the caller is responsible for
// producing the unimplemented-action failure (see RunAction).
func Dispatch(ctx context.Context, action core.Action, target core.Target, reporter core.Reporter) (core.Runner, bool) {
	switch a := action.(type) {
	case core.DiagnoseAction:
		return newDiagnosticsRunner(ctx, reporter, target, a), true
	case core.InstallAction:
		return newSimpleRunner(reporter, core.EventNameInstall, a.Subject(), func() error {
			if a.Path == "" {
				return core.NewDeviceError("install", "application path is required")
			}
			return target.InstallApplication(ctx, a.Path, a.CodeSign)
		}), true
	case core.UninstallAction:
		return newSimpleRunner(reporter, core.EventNameUninstall, a.Subject(), func() error {
			if a.BundleID == "" {
				return core.NewDeviceError("uninstall", "bundle id is required")
			}
			return target.UninstallApplication(ctx, a.BundleID)
		}), true
	case core.LaunchAppAction:
		return newSimpleRunner(reporter, core.EventNameLaunch, a.Subject(), func() error {
			if a.Config.BundleID == "" {
				return core.NewDeviceError("launch", "bundle id is required")
			}
			return target.LaunchApplication(ctx, a.Config)
		}), true
	case core.LaunchXCTestAction:
		// Temporary default: every test launch initializes UI testing,
		// regardless of the caller-supplied value. The rewrite happens here,
		// once, before any event is reported.
		config := a.Config
		config.InitializeUITesting = true
		rewritten := core.LaunchXCTestAction{Config: config}
		return newHandledRunner(reporter, core.EventNameLaunchXCTest, rewritten.Subject(), func() (core.TerminationHandle, error) {
			if config.BundlePath == "" {
				return nil, core.NewDeviceError("launch_xctest", "test bundle path is required")
			}
			session, err := target.StartTest(ctx, config)
			if err != nil {
				return nil, err
			}
			if config.Timeout > 0 {
				if err := session.WaitUntilFinished(config.Timeout); err != nil {
					_ = session.Terminate()
					return nil, err
				}
			}
			return session, nil
		}), true
	case core.ListAppsAction:
		// Listings are silent: no Started/Ended bracket, only the resulting
		// value is reported.
		return newSimpleRunner(reporter, "", nil, func() error {
			apps, err := target.ListInstalledApplications(ctx)
			if err != nil {
				return err
			}
			reporter.ReportValue(core.EventNameListApps, core.EventTypeDiscrete, apps)
			return nil
		}), true
	case core.RecordStartAction:
		runner := newHandledRunner(reporter, core.EventNameRecord, nil, func() (core.TerminationHandle, error) {
			return target.StartRecording(ctx, a.Path)
		})
		runner.value = a
		return runner, true
	case core.RecordStopAction:
		// Stops report only the action payload as a value, no bracket.
		return newSimpleRunner(reporter, "", nil, func() error {
			if err := target.StopRecording(ctx); err != nil {
				return err
			}
			reporter.ReportValue(core.EventNameRecord, core.EventTypeDiscrete, a)
			return nil
		}), true
	case core.TerminateAction:
		return newSimpleRunner(reporter, core.EventNameTerminate, a.Subject(), func() error {
			if a.BundleID == "" {
				return core.NewDeviceError("terminate", "bundle id is required")
			}
			return target.KillApplication(ctx, a.BundleID)
		}), true
	case core.CustomAction:
		return nil, false
	}
	return nil, false
}

// RunAction dispatches and runs an action, producing the deterministic
// unimplemented-action failure when dispatch yields no runner. This is the
// entry point callers should use; dispatch misses are never silently
// swallowed.
func RunAction(ctx context.Context, action core.Action, target core.Target, reporter core.Reporter) core.Result {
	runner, ok := Dispatch(ctx, action, target, reporter)
	if !ok {
		runner = newUnimplementedRunner(action, target)
	}
	return runner.Run()
}
