package simulator

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/devicemesh/core"
)

// RecordingSession is the termination handle for an active video recording.
// Terminating the session interrupts the recorder process and waits for the
// video file to be finalized.
type RecordingSession struct {
	id      string
	target  *Target
	path    string
	process Process
}

// ID returns the session's unique identifier.
func (s *RecordingSession) ID() string { return s.id }

// Path returns the output file the recording is written to.
func (s *RecordingSession) Path() string { return s.path }

// HandleKind identifies the handle as a video recording.
func (s *RecordingSession) HandleKind() string { return "video_recording" }

// Terminate stops the recording. Equivalent to StopRecording on the target;
// whichever runs first wins, the other reports the absent session.
func (s *RecordingSession) Terminate() error {
	return s.target.StopRecording(context.Background())
}

// StartRecording begins recording video to path, or reuses the session
// already in flight. The reuse is deliberately silent: a second start call
// observes success and receives the existing session's handle, and no second
// recorder process is spawned.
func (t *Target) StartRecording(ctx context.Context, path string) (core.TerminationHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.recording != nil {
		return t.recording, nil
	}

	if path == "" {
		path = filepath.Join(os.TempDir(), "devicemesh_recording_"+time.Now().Format("20060102_150405")+".mov")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, core.WrapDeviceError("record", err)
	}

	process, err := t.runner.Start(ctx, nil, "xcrun", "simctl", "io", t.udid, "recordVideo", path)
	if err != nil {
		return nil, err
	}

	t.recording = &RecordingSession{
		id:      core.NewID(),
		target:  t,
		path:    path,
		process: process,
	}
	t.logger.Info("recording started", "target_udid", t.udid, "path", path, "session_id", t.recording.id)

	return t.recording, nil
}

// StopRecording ends the active recording session. Stopping with no session
// in flight is a categorized error naming the absent session.
func (t *Target) StopRecording(_ context.Context) error {
	t.mu.Lock()
	session := t.recording
	t.recording = nil
	t.mu.Unlock()

	if session == nil {
		return core.NewDeviceErrorf("record", "no active recording session for target %s", t.Description())
	}

	if err := session.process.Interrupt(); err != nil {
		_ = session.process.Kill()
		return core.WrapDeviceError("record", err)
	}
	// The recorder finalizes the file on SIGINT; wait for it so the caller
	// observes a complete video.
	_ = session.process.Wait()

	t.logger.Info("recording stopped", "target_udid", t.udid, "path", session.path, "session_id", session.id)

	return nil
}

// IsRecording reports whether a recording session is in flight.
func (t *Target) IsRecording() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recording != nil
}
