package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/dispatch"
	"github.com/hupe1980/devicemesh/logging"
	"github.com/hupe1980/devicemesh/reporter"
)

// Options holds dependency overrides passed to New().
type Options struct {
	// Logger receives operational logs.
	Logger logging.Logger
}

// Server dispatches actions received over HTTP against one target and keeps
// the registry of open termination handles.
type Server struct {
	target   core.Target
	reporter core.Reporter
	logger   logging.Logger
	router   *mux.Router

	mu      sync.Mutex
	handles map[string]core.TerminationHandle
}

// New constructs a Server bound to a target and a session reporter. Events
// from relayed runs go both to the session reporter and into the per-request
// response.
func New(target core.Target, rep core.Reporter, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		target:   target,
		reporter: rep,
		logger:   opts.Logger,
		handles:  make(map[string]core.TerminationHandle),
	}
	s.router = s.newRouter()

	return s
}

// WithLogger sets the operational logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Router returns the HTTP handler for mounting or serving.
func (s *Server) Router() *mux.Router { return s.router }

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/actions", s.handleRunAction).Methods("POST")
	r.HandleFunc("/handles", s.handleListHandles).Methods("GET")
	r.HandleFunc("/handles/{id}", s.handleTerminate).Methods("DELETE")
	return r
}

// runResponse is the wire form of one relayed run.
type runResponse struct {
	Success   bool            `json:"success"`
	Subject   json.RawMessage `json:"subject,omitempty"`
	Error     string          `json:"error,omitempty"`
	HandleIDs []string        `json:"handle_ids,omitempty"`
	Events    []eventDocument `json:"events"`
}

type eventDocument struct {
	EventName core.EventName `json:"event_name"`
	EventType core.EventType `json:"event_type"`
	Subject   any            `json:"subject,omitempty"`
}

type handleDocument struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "target": s.target.Description()})
}

func (s *Server) handleRunAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	action, err := DecodeAction(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// Per-request capture plus the session reporter; the capture feeds the
	// response so HTTP callers see the events their run produced.
	capture := reporter.NewMemory()
	result := dispatch.RunAction(r.Context(), action, s.target, reporter.NewMulti(capture, s.reporter))

	resp := runResponse{
		Success: result.Success,
		Error:   result.Error,
		Events:  make([]eventDocument, 0),
	}
	if result.Subject != nil {
		if data, err := result.Subject.MarshalJSON(); err == nil {
			resp.Subject = data
		}
	}
	for _, ev := range capture.Events() {
		doc := eventDocument{EventName: ev.Name, EventType: ev.Type}
		if ev.Subject != nil {
			doc.Subject = ev.Subject
		} else {
			doc.Subject = ev.Value
		}
		resp.Events = append(resp.Events, doc)
	}
	for _, handle := range result.Handles {
		resp.HandleIDs = append(resp.HandleIDs, s.register(handle))
	}

	s.logger.Info("action relayed", "kind", string(action.Kind()), "success", result.Success)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListHandles(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	docs := make([]handleDocument, 0, len(s.handles))
	for id, h := range s.handles {
		docs = append(docs, handleDocument{ID: id, Kind: h.HandleKind()})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	handle, ok := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown handle " + id})
		return
	}

	if err := handle.Terminate(); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": core.FailureMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, handleDocument{ID: id, Kind: handle.HandleKind()})
}

// register stores a handle and returns its registry id.
func (s *Server) register(handle core.TerminationHandle) string {
	id := core.NewID()
	s.mu.Lock()
	s.handles[id] = handle
	s.mu.Unlock()
	return id
}

// Close terminates every handle still open in the registry. Call on
// shutdown so relayed recordings and test runs do not leak.
func (s *Server) Close() error {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[string]core.TerminationHandle)
	s.mu.Unlock()

	var first error
	for id, h := range handles {
		if err := h.Terminate(); err != nil {
			s.logger.Warn("failed to terminate handle", "handle_id", id, "error", err.Error())
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
