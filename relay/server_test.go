package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/internal/testutil"
	"github.com/hupe1980/devicemesh/reporter"
)

func newTestServer(t *testing.T, target *testutil.StubTarget) (*Server, *reporter.Memory) {
	t.Helper()
	rep := reporter.NewMemory()
	return New(target, rep), rep
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	target.DeviceName = "iPhone 15"
	s, _ := newTestServer(t, target)

	rec := doJSON(t, s.Router(), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "iPhone 15", body["target"])
}

func TestRunActionSuccess(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	var installed string
	target.InstallFn = func(path string, _ bool) error {
		installed = path
		return nil
	}
	s, session := newTestServer(t, target)

	rec := doJSON(t, s.Router(), http.MethodPost, "/actions", `{"kind": "install", "path": "/tmp/App.app"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/tmp/App.app", installed)

	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.HandleIDs)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, core.EventTypeStarted, resp.Events[0].EventType)
	assert.Equal(t, core.EventTypeEnded, resp.Events[1].EventType)

	// Events also reach the session reporter.
	assert.Len(t, session.Events(), 2)
}

func TestRunActionFailure(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	target.InstallFn = func(string, bool) error {
		return core.NewDeviceError("install", "bundle is damaged")
	}
	s, _ := newTestServer(t, target)

	rec := doJSON(t, s.Router(), http.MethodPost, "/actions", `{"kind": "install", "path": "/tmp/App.app"}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "install: bundle is damaged", resp.Error)
}

func TestRunActionMalformedBody(t *testing.T) {
	s, _ := newTestServer(t, testutil.NewStubTarget("UDID-1"))

	rec := doJSON(t, s.Router(), http.MethodPost, "/actions", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunActionMissingKind(t *testing.T) {
	s, _ := newTestServer(t, testutil.NewStubTarget("UDID-1"))

	rec := doJSON(t, s.Router(), http.MethodPost, "/actions", `{"path": "/tmp/App.app"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLifecycle(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	terminated := false
	target.RecordFn = func(string) (core.TerminationHandle, error) {
		return core.NewHandleFunc("video_recording", func() error {
			terminated = true
			return nil
		}), nil
	}
	s, _ := newTestServer(t, target)

	rec := doJSON(t, s.Router(), http.MethodPost, "/actions", `{"kind": "record_start", "path": "/tmp/video.mov"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.HandleIDs, 1)
	id := resp.HandleIDs[0]

	rec = doJSON(t, s.Router(), http.MethodGet, "/handles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var handles []handleDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &handles))
	require.Len(t, handles, 1)
	assert.Equal(t, id, handles[0].ID)
	assert.Equal(t, "video_recording", handles[0].Kind)

	rec = doJSON(t, s.Router(), http.MethodDelete, "/handles/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, terminated)

	// The registry forgets terminated handles.
	rec = doJSON(t, s.Router(), http.MethodDelete, "/handles/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTerminateUnknownHandle(t *testing.T) {
	s, _ := newTestServer(t, testutil.NewStubTarget("UDID-1"))

	rec := doJSON(t, s.Router(), http.MethodDelete, "/handles/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCloseTerminatesOpenHandles(t *testing.T) {
	target := testutil.NewStubTarget("UDID-1")
	var stopped int
	target.RecordFn = func(string) (core.TerminationHandle, error) {
		return core.NewHandleFunc("video_recording", func() error {
			stopped++
			return nil
		}), nil
	}
	s, _ := newTestServer(t, target)

	rec := doJSON(t, s.Router(), http.MethodPost, "/actions", `{"kind": "record_start"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, stopped)

	rec = doJSON(t, s.Router(), http.MethodGet, "/handles", "")
	var handles []handleDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &handles))
	assert.Empty(t, handles)
}
