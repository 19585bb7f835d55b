package simulator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/devicemesh/core"
)

// TestRun is the handle for an in-flight xcodebuild test invocation.
type TestRun struct {
	id      string
	udid    string
	process Process

	waitOnce sync.Once
	done     chan struct{}
	waitErr  error
}

// ID returns the run's unique identifier.
func (r *TestRun) ID() string { return r.id }

// HandleKind identifies the handle as a test run.
func (r *TestRun) HandleKind() string { return "test_run" }

// Terminate kills the underlying xcodebuild process.
func (r *TestRun) Terminate() error {
	if err := r.process.Kill(); err != nil {
		return core.WrapDeviceError("launch_xctest", err)
	}
	return nil
}

// WaitUntilFinished blocks until the run exits or the timeout elapses. A
// timeout is a categorized error; the run keeps going and the handle stays
// valid.
func (r *TestRun) WaitUntilFinished(timeout time.Duration) error {
	r.waitOnce.Do(func() {
		go func() {
			r.waitErr = r.process.Wait()
			close(r.done)
		}()
	})

	select {
	case <-r.done:
		if r.waitErr != nil {
			return core.NewDeviceErrorf("launch_xctest", "test run failed: %s", r.waitErr.Error())
		}
		return nil
	case <-time.After(timeout):
		return core.NewDeviceErrorf("launch_xctest", "test run did not finish within %s", timeout)
	}
}

// StartTest launches a test bundle against the device and returns the
// session handle without waiting for completion. config.BundlePath names an
// .xctestrun file (test-without-building) or a project/workspace directory.
func (t *Target) StartTest(ctx context.Context, config core.TestLaunchConfig) (core.TestSession, error) {
	args := []string{}
	if strings.HasSuffix(config.BundlePath, ".xctestrun") {
		args = append(args, "test-without-building", "-xctestrun", config.BundlePath)
	} else {
		args = append(args, "test", "-project", config.BundlePath)
	}
	args = append(args, "-destination", "platform=iOS Simulator,id="+t.udid)
	for _, test := range config.TestsToRun {
		args = append(args, "-only-testing:"+test)
	}

	var env []string
	for k, v := range config.Environment {
		env = append(env, k+"="+v)
	}

	process, err := t.runner.Start(ctx, env, "xcodebuild", args...)
	if err != nil {
		return nil, err
	}

	run := &TestRun{
		id:      core.NewID(),
		udid:    t.udid,
		process: process,
		done:    make(chan struct{}),
	}
	t.logger.Info("test run started", "target_udid", t.udid, "bundle", config.BundlePath, "session_id", run.id, "ui_testing", config.InitializeUITesting)

	return run, nil
}
