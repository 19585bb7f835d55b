package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/internal/testutil"
	"github.com/hupe1980/devicemesh/reporter"
)

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestInstallAppTool(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	var installed string
	target.InstallFn = func(path string, _ bool) error {
		installed = path
		return nil
	}
	s := NewServer(target, reporter.NewMemory())

	result, err := s.handleInstallApp(context.Background(), toolRequest(map[string]any{"path": "/tmp/App.app"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "/tmp/App.app", installed)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &doc))
	assert.Equal(t, true, doc["success"])
}

func TestToolFailureBecomesToolError(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	target.InstallFn = func(string, bool) error {
		return core.NewDeviceError("install", "bundle is damaged")
	}
	s := NewServer(target, reporter.NewMemory())

	result, err := s.handleInstallApp(context.Background(), toolRequest(map[string]any{"path": "/tmp/App.app"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "bundle is damaged")
}

func TestRecordToolsHandleLifecycle(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	terminated := false
	target.RecordFn = func(string) (core.TerminationHandle, error) {
		return core.NewHandleFunc("video_recording", func() error {
			terminated = true
			return nil
		}), nil
	}
	s := NewServer(target, reporter.NewMemory())

	result, err := s.handleRecordVideoStart(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var doc struct {
		HandleIDs []string `json:"handle_ids"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &doc))
	require.Len(t, doc.HandleIDs, 1)

	result, err = s.handleStopHandle(context.Background(), toolRequest(map[string]any{"handle_id": doc.HandleIDs[0]}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.True(t, terminated)

	result, err = s.handleStopHandle(context.Background(), toolRequest(map[string]any{"handle_id": doc.HandleIDs[0]}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRunXCTestToolMapsTimeout(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	session := &testutil.StubTestSession{}
	var observed core.TestLaunchConfig
	target.StartTestFn = func(config core.TestLaunchConfig) (core.TestSession, error) {
		observed = config
		return session, nil
	}
	s := NewServer(target, reporter.NewMemory())

	result, err := s.handleRunXCTest(context.Background(), toolRequest(map[string]any{
		"bundle_path":     "/tmp/UITests.xctestrun",
		"timeout_seconds": 5,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "/tmp/UITests.xctestrun", observed.BundlePath)
	assert.True(t, session.Waited)
}
