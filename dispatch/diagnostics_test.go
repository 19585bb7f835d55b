package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/diagnostic"
	"github.com/hupe1980/devicemesh/internal/testutil"
	"github.com/hupe1980/devicemesh/reporter"
)

func TestDiagnosticsEmptyMatchIsSuccess(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	rep := reporter.NewMemory()

	result := RunAction(context.Background(), core.DiagnoseAction{}, target, rep)

	assert.True(t, result.Success)
	require.NotNil(t, result.Subject)

	composite, ok := result.Subject.(core.CompositeSubject)
	require.True(t, ok)
	assert.Empty(t, composite)

	// Just the bracket, no discrete events.
	events := rep.Events()
	require.Len(t, events, 2)
	assert.Equal(t, core.EventTypeStarted, events[0].Type)
	assert.Equal(t, core.EventTypeEnded, events[1].Type)
}

func TestDiagnosticsReportsEachMatch(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	rep := reporter.NewMemory()
	target.DiagnoseFn = func(query diagnostic.Query) ([]diagnostic.Diagnostic, error) {
		assert.Equal(t, "crashes", query.PathContains)
		return []diagnostic.Diagnostic{
			{ShortName: "app.crash", Path: "/logs/crashes/app.crash"},
			{ShortName: "daemon.crash", Path: "/logs/crashes/daemon.crash"},
		}, nil
	}

	action := core.DiagnoseAction{
		Query:  diagnostic.Query{PathContains: "crashes"},
		Format: diagnostic.FormatCurrent,
	}
	result := RunAction(context.Background(), action, target, rep)

	assert.True(t, result.Success)

	composite, ok := result.Subject.(core.CompositeSubject)
	require.True(t, ok)
	assert.Len(t, composite, 2)

	events := rep.Events()
	require.Len(t, events, 4)
	assert.Equal(t, core.EventTypeStarted, events[0].Type)
	assert.Equal(t, core.EventTypeDiscrete, events[1].Type)
	assert.Equal(t, core.EventTypeDiscrete, events[2].Type)
	assert.Equal(t, core.EventTypeEnded, events[3].Type)
	for _, event := range events {
		assert.Equal(t, core.EventNameDiagnose, event.Name)
	}
}

func TestDiagnosticsAppliesFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.log")
	require.NoError(t, os.WriteFile(path, []byte("log line\n"), 0o644))

	target := testutil.NewStubTarget("UDID-1")
	rep := reporter.NewMemory()
	target.DiagnoseFn = func(diagnostic.Query) ([]diagnostic.Diagnostic, error) {
		return []diagnostic.Diagnostic{{ShortName: "system.log", Path: path}}, nil
	}

	action := core.DiagnoseAction{Format: diagnostic.FormatContent}
	result := RunAction(context.Background(), action, target, rep)

	assert.True(t, result.Success)

	events := rep.Events()
	require.Len(t, events, 3)
	d, ok := events[1].Value.(diagnostic.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, []byte("log line\n"), d.Content)
}

func TestDiagnosticsQueryFailure(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	rep := reporter.NewMemory()
	target.DiagnoseFn = func(diagnostic.Query) ([]diagnostic.Diagnostic, error) {
		return nil, core.NewDeviceError("diagnose", "log directory is unreadable")
	}

	result := RunAction(context.Background(), core.DiagnoseAction{}, target, rep)

	assert.False(t, result.Success)
	assert.Equal(t, "diagnose: log directory is unreadable", result.Error)

	events := rep.Events()
	require.Len(t, events, 1)
	assert.Equal(t, core.EventTypeStarted, events[0].Type)
}

func TestDiagnosticsUnknownFormat(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	rep := reporter.NewMemory()
	target.DiagnoseFn = func(diagnostic.Query) ([]diagnostic.Diagnostic, error) {
		return []diagnostic.Diagnostic{{ShortName: "system.log", Path: "/logs/system.log"}}, nil
	}

	result := RunAction(context.Background(), core.DiagnoseAction{Format: diagnostic.Format("xml")}, target, rep)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "diagnose:")
}
