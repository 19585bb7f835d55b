package simulator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/diagnostic"
)

type recordedCall struct {
	name string
	args []string
	env  []string
}

func (c recordedCall) line() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

type fakeProcess struct {
	mu          sync.Mutex
	interrupted bool
	killed      bool
	waitFn      func() error
}

func (p *fakeProcess) Interrupt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interrupted = true
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed = true
	return nil
}

func (p *fakeProcess) Wait() error {
	if p.waitFn != nil {
		return p.waitFn()
	}
	return nil
}

type fakeRunner struct {
	mu        sync.Mutex
	calls     []recordedCall
	outputs   [][]byte
	outputErr error
	process   *fakeProcess
	startErr  error
}

func (r *fakeRunner) Output(_ context.Context, env []string, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{name: name, args: args, env: env})
	if r.outputErr != nil {
		return nil, r.outputErr
	}
	if len(r.outputs) == 0 {
		return nil, nil
	}
	out := r.outputs[0]
	r.outputs = r.outputs[1:]
	return out, nil
}

func (r *fakeRunner) Start(_ context.Context, env []string, name string, args ...string) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{name: name, args: args, env: env})
	if r.startErr != nil {
		return nil, r.startErr
	}
	if r.process == nil {
		r.process = &fakeProcess{}
	}
	return r.process, nil
}

func (r *fakeRunner) recorded() []recordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedCall(nil), r.calls...)
}

func newTestTarget(runner *fakeRunner, optFns ...func(o *Options)) *Target {
	optFns = append(optFns, withRunner(runner))
	return NewTarget("UDID-1", optFns...)
}

func TestDescription(t *testing.T) {
	assert.Equal(t, "UDID-1", newTestTarget(&fakeRunner{}).Description())
	assert.Equal(t, "iPhone 15 (UDID-1)", newTestTarget(&fakeRunner{}, WithName("iPhone 15")).Description())
}

func TestInstallApplication(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)

	require.NoError(t, target.InstallApplication(context.Background(), "/tmp/App.app", false))

	calls := runner.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "xcrun simctl install UDID-1 /tmp/App.app", calls[0].line())
}

func TestInstallApplicationCodesignsFirst(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)

	require.NoError(t, target.InstallApplication(context.Background(), "/tmp/App.app", true))

	calls := runner.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "codesign --force --sign - --deep /tmp/App.app", calls[0].line())
	assert.Equal(t, "xcrun simctl install UDID-1 /tmp/App.app", calls[1].line())
}

func TestUninstallApplication(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)

	require.NoError(t, target.UninstallApplication(context.Background(), "com.example.app"))

	calls := runner.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "xcrun simctl uninstall UDID-1 com.example.app", calls[0].line())
}

func TestLaunchApplication(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)

	config := core.AppLaunchConfig{
		BundleID:        "com.example.app",
		Arguments:       []string{"-verbose"},
		Environment:     map[string]string{"API_URL": "http://localhost"},
		WaitForDebugger: true,
	}
	require.NoError(t, target.LaunchApplication(context.Background(), config))

	calls := runner.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "xcrun simctl launch --wait-for-debugger UDID-1 com.example.app -verbose", calls[0].line())
	assert.Equal(t, []string{"SIMCTL_CHILD_API_URL=http://localhost"}, calls[0].env)
}

func TestKillApplication(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)

	require.NoError(t, target.KillApplication(context.Background(), "com.example.app"))

	calls := runner.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "xcrun simctl terminate UDID-1 com.example.app", calls[0].line())
}

func TestListInstalledApplications(t *testing.T) {
	runner := &fakeRunner{
		outputs: [][]byte{
			[]byte("(raw plist)"),
			[]byte(`{
				"com.example.app": {"CFBundleDisplayName": "Example", "Path": "/apps/Example.app", "ApplicationType": "User"},
				"com.apple.mobilesafari": {"CFBundleName": "Safari", "ApplicationType": "System"}
			}`),
		},
	}
	target := newTestTarget(runner)

	apps, err := target.ListInstalledApplications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)

	byID := map[string]core.InstalledApplication{}
	for _, app := range apps {
		byID[app.BundleID] = app
	}
	assert.Equal(t, "Example", byID["com.example.app"].Name)
	assert.Equal(t, "/apps/Example.app", byID["com.example.app"].Path)
	assert.Equal(t, "User", byID["com.example.app"].InstallType)
	// CFBundleName is the fallback when no display name is set.
	assert.Equal(t, "Safari", byID["com.apple.mobilesafari"].Name)

	calls := runner.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "xcrun simctl listapps UDID-1", calls[0].line())
	assert.Equal(t, "plutil", calls[1].name)
	assert.Equal(t, []string{"-convert", "json", "-o", "-"}, calls[1].args[:4])
}

func TestParseInstalledApplicationsInvalidJSON(t *testing.T) {
	_, err := parseInstalledApplications([]byte("not json"))

	var devErr *core.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, "list_apps", devErr.Op)
}

func TestQueryDiagnostics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "CrashReporter"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CrashReporter", "app.crash"), []byte("x"), 0o644))

	target := newTestTarget(&fakeRunner{}, WithLogDir(dir))

	all, err := target.QueryDiagnostics(context.Background(), diagnostic.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	crashes, err := target.QueryDiagnostics(context.Background(), diagnostic.Query{PathContains: "CrashReporter"})
	require.NoError(t, err)
	require.Len(t, crashes, 1)
	assert.Equal(t, filepath.Join("CrashReporter", "app.crash"), crashes[0].ShortName)
}

func TestQueryDiagnosticsMissingDir(t *testing.T) {
	target := newTestTarget(&fakeRunner{}, WithLogDir(filepath.Join(t.TempDir(), "absent")))

	matched, err := target.QueryDiagnostics(context.Background(), diagnostic.Query{})
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestStartRecording(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)
	path := filepath.Join(t.TempDir(), "video.mov")

	handle, err := target.StartRecording(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "video_recording", handle.HandleKind())
	assert.True(t, target.IsRecording())

	calls := runner.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "xcrun simctl io UDID-1 recordVideo "+path, calls[0].line())
}

func TestStartRecordingDefaultsPath(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)

	handle, err := target.StartRecording(context.Background(), "")
	require.NoError(t, err)

	session, ok := handle.(*RecordingSession)
	require.True(t, ok)
	assert.NotEmpty(t, session.Path())
	assert.True(t, strings.HasSuffix(session.Path(), ".mov"))
}

func TestStartRecordingReusesSession(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)
	path := filepath.Join(t.TempDir(), "video.mov")

	first, err := target.StartRecording(context.Background(), path)
	require.NoError(t, err)
	second, err := target.StartRecording(context.Background(), path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, runner.recorded(), 1, "no second recorder process may be spawned")
}

func TestStopRecording(t *testing.T) {
	process := &fakeProcess{}
	runner := &fakeRunner{process: process}
	target := newTestTarget(runner)

	_, err := target.StartRecording(context.Background(), filepath.Join(t.TempDir(), "video.mov"))
	require.NoError(t, err)

	require.NoError(t, target.StopRecording(context.Background()))
	assert.True(t, process.interrupted)
	assert.False(t, process.killed)
	assert.False(t, target.IsRecording())
}

func TestStopRecordingWithoutSession(t *testing.T) {
	target := newTestTarget(&fakeRunner{}, WithName("iPhone 15"))

	err := target.StopRecording(context.Background())

	var devErr *core.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, "record", devErr.Op)
	assert.Contains(t, err.Error(), "no active recording session for target iPhone 15 (UDID-1)")
}

func TestRecordingSessionTerminate(t *testing.T) {
	process := &fakeProcess{}
	runner := &fakeRunner{process: process}
	target := newTestTarget(runner)

	handle, err := target.StartRecording(context.Background(), filepath.Join(t.TempDir(), "video.mov"))
	require.NoError(t, err)

	require.NoError(t, handle.Terminate())
	assert.True(t, process.interrupted)
	assert.False(t, target.IsRecording())

	// The second stop observes the absent session.
	assert.Error(t, target.StopRecording(context.Background()))
}

func TestStartTestWithTestrunBundle(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)

	config := core.TestLaunchConfig{
		BundlePath:  "/tmp/UITests.xctestrun",
		TestsToRun:  []string{"UITests/testLogin"},
		Environment: map[string]string{"CI": "1"},
	}
	session, err := target.StartTest(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, "test_run", session.HandleKind())

	calls := runner.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "xcodebuild", calls[0].name)
	assert.Equal(t, []string{
		"test-without-building", "-xctestrun", "/tmp/UITests.xctestrun",
		"-destination", "platform=iOS Simulator,id=UDID-1",
		"-only-testing:UITests/testLogin",
	}, calls[0].args)
	assert.Equal(t, []string{"CI=1"}, calls[0].env)
}

func TestStartTestWithProject(t *testing.T) {
	runner := &fakeRunner{}
	target := newTestTarget(runner)

	_, err := target.StartTest(context.Background(), core.TestLaunchConfig{BundlePath: "/src/App.xcodeproj"})
	require.NoError(t, err)

	calls := runner.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"test", "-project", "/src/App.xcodeproj"}, calls[0].args[:3])
}

func TestTestRunWaitSuccess(t *testing.T) {
	process := &fakeProcess{}
	runner := &fakeRunner{process: process}
	target := newTestTarget(runner)

	session, err := target.StartTest(context.Background(), core.TestLaunchConfig{BundlePath: "/tmp/UITests.xctestrun"})
	require.NoError(t, err)

	assert.NoError(t, session.WaitUntilFinished(time.Second))
}

func TestTestRunWaitFailure(t *testing.T) {
	process := &fakeProcess{waitFn: func() error { return errors.New("exit status 65") }}
	runner := &fakeRunner{process: process}
	target := newTestTarget(runner)

	session, err := target.StartTest(context.Background(), core.TestLaunchConfig{BundlePath: "/tmp/UITests.xctestrun"})
	require.NoError(t, err)

	err = session.WaitUntilFinished(time.Second)
	var devErr *core.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Contains(t, err.Error(), "test run failed")
}

func TestTestRunWaitTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	process := &fakeProcess{waitFn: func() error { <-block; return nil }}
	runner := &fakeRunner{process: process}
	target := newTestTarget(runner)

	session, err := target.StartTest(context.Background(), core.TestLaunchConfig{BundlePath: "/tmp/UITests.xctestrun"})
	require.NoError(t, err)

	err = session.WaitUntilFinished(10 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not finish within")
}

func TestTestRunTerminate(t *testing.T) {
	process := &fakeProcess{}
	runner := &fakeRunner{process: process}
	target := newTestTarget(runner)

	session, err := target.StartTest(context.Background(), core.TestLaunchConfig{BundlePath: "/tmp/UITests.xctestrun"})
	require.NoError(t, err)

	require.NoError(t, session.Terminate())
	assert.True(t, process.killed)
}
