package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/diagnostic"
	"github.com/hupe1980/devicemesh/logging"
)

// Options holds dependency + configuration overrides passed to NewTarget().
type Options struct {
	// Name is the human-readable device name.
	Name string
	// LogDir overrides the directory scanned for diagnostics. Defaults to
	// the CoreSimulator log directory for the device.
	LogDir string
	// Logger receives operational logs.
	Logger logging.Logger

	runner commandRunner
}

// Target drives one simulator device through `xcrun simctl` and
// `xcodebuild`, implementing core.Target.
type Target struct {
	udid   string
	name   string
	logDir string
	logger logging.Logger
	runner commandRunner

	mu        sync.Mutex
	recording *RecordingSession
}

// NewTarget constructs a Target for the device with the given UDID.
func NewTarget(udid string, optFns ...func(o *Options)) *Target {
	opts := Options{
		Logger: logging.NoOpLogger{},
		runner: execRunner{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logDir := opts.LogDir
	if logDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			logDir = filepath.Join(home, "Library", "Logs", "CoreSimulator", udid)
		}
	}

	return &Target{
		udid:   udid,
		name:   opts.Name,
		logDir: logDir,
		logger: opts.Logger,
		runner: opts.runner,
	}
}

// WithName sets the human-readable device name.
func WithName(name string) func(o *Options) {
	return func(o *Options) { o.Name = name }
}

// WithLogDir overrides the diagnostics log directory.
func WithLogDir(dir string) func(o *Options) {
	return func(o *Options) { o.LogDir = dir }
}

// WithLogger sets the operational logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// withRunner substitutes the command runner. Test seam.
func withRunner(r commandRunner) func(o *Options) {
	return func(o *Options) { o.runner = r }
}

// UDID returns the unique device identifier.
func (t *Target) UDID() string { return t.udid }

// Name returns the human-readable device name.
func (t *Target) Name() string { return t.name }

// Description returns a one-line description used in failure messages.
func (t *Target) Description() string {
	if t.name != "" {
		return fmt.Sprintf("%s (%s)", t.name, t.udid)
	}
	return t.udid
}

// InstallApplication installs the application bundle at path, optionally
// re-signing it with the ad-hoc identity first.
func (t *Target) InstallApplication(ctx context.Context, path string, codesign bool) error {
	if codesign {
		if _, err := t.runner.Output(ctx, nil, "codesign", "--force", "--sign", "-", "--deep", path); err != nil {
			return err
		}
	}
	_, err := t.runner.Output(ctx, nil, "xcrun", "simctl", "install", t.udid, path)
	return err
}

// UninstallApplication removes the installed application.
func (t *Target) UninstallApplication(ctx context.Context, bundleID string) error {
	_, err := t.runner.Output(ctx, nil, "xcrun", "simctl", "uninstall", t.udid, bundleID)
	return err
}

// LaunchApplication launches an installed application. Child environment
// variables are forwarded through simctl's SIMCTL_CHILD_ prefix convention.
func (t *Target) LaunchApplication(ctx context.Context, config core.AppLaunchConfig) error {
	args := []string{"simctl", "launch"}
	if config.WaitForDebugger {
		args = append(args, "--wait-for-debugger")
	}
	args = append(args, t.udid, config.BundleID)
	args = append(args, config.Arguments...)

	var env []string
	for k, v := range config.Environment {
		env = append(env, "SIMCTL_CHILD_"+k+"="+v)
	}

	_, err := t.runner.Output(ctx, env, "xcrun", args...)
	return err
}

// KillApplication terminates the running application.
func (t *Target) KillApplication(ctx context.Context, bundleID string) error {
	_, err := t.runner.Output(ctx, nil, "xcrun", "simctl", "terminate", t.udid, bundleID)
	return err
}

// ListInstalledApplications enumerates the applications present on the
// device. simctl emits an NeXTSTEP-style plist; plutil converts it to JSON
// before parsing.
func (t *Target) ListInstalledApplications(ctx context.Context) ([]core.InstalledApplication, error) {
	out, err := t.runner.Output(ctx, nil, "xcrun", "simctl", "listapps", t.udid)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "devicemesh-listapps-*.plist")
	if err != nil {
		return nil, core.WrapDeviceError("list_apps", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return nil, core.WrapDeviceError("list_apps", err)
	}
	tmp.Close()

	converted, err := t.runner.Output(ctx, nil, "plutil", "-convert", "json", "-o", "-", tmp.Name())
	if err != nil {
		return nil, err
	}

	return parseInstalledApplications(converted)
}

type listedApp struct {
	CFBundleDisplayName string `json:"CFBundleDisplayName"`
	CFBundleName        string `json:"CFBundleName"`
	Path                string `json:"Path"`
	ApplicationType     string `json:"ApplicationType"`
}

func parseInstalledApplications(data []byte) ([]core.InstalledApplication, error) {
	var listed map[string]listedApp
	if err := json.Unmarshal(data, &listed); err != nil {
		return nil, core.WrapDeviceError("list_apps", err)
	}
	apps := make([]core.InstalledApplication, 0, len(listed))
	for bundleID, app := range listed {
		name := app.CFBundleDisplayName
		if name == "" {
			name = app.CFBundleName
		}
		apps = append(apps, core.InstalledApplication{
			BundleID:    bundleID,
			Name:        name,
			Path:        app.Path,
			InstallType: app.ApplicationType,
		})
	}
	return apps, nil
}

// QueryDiagnostics enumerates the device's log files as diagnostics and
// applies the query. A missing log directory yields an empty snapshot, not
// an error.
func (t *Target) QueryDiagnostics(_ context.Context, query diagnostic.Query) ([]diagnostic.Diagnostic, error) {
	var snapshot []diagnostic.Diagnostic
	if t.logDir != "" {
		err := filepath.WalkDir(t.logDir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(t.logDir, path)
			if relErr != nil {
				rel = d.Name()
			}
			snapshot = append(snapshot, diagnostic.Diagnostic{ShortName: rel, Path: path})
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, core.WrapDeviceError("diagnose", err)
		}
	}
	return query.Filter(snapshot), nil
}
