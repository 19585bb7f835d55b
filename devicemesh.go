// Package devicemesh provides a high-level façade over the dispatch layer
// for running typed actions against a device target. Most applications
// interact with this package by:
//  1. Creating a Session via New() around a target (optionally overriding the
//     reporter and logger)
//  2. Running actions through Session.Run
//  3. Closing the session, which terminates every handle its actions left open
//
// The façade delegates runner selection to dispatch.RunAction while keeping
// setup and cleanup ergonomics concise. The defaults are safe for local use:
// events go to stdout as JSON lines and logs are discarded.
package devicemesh

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/dispatch"
	"github.com/hupe1980/devicemesh/logging"
	"github.com/hupe1980/devicemesh/reporter"
)

// Options configures the Session.
type Options struct {
	// Reporter receives lifecycle events from every action the session runs.
	// Defaults to a JSON-lines writer on stdout.
	Reporter core.Reporter
	// Logger receives operational logs. Defaults to the NoOp logger.
	Logger logging.Logger
}

// Session binds one target to a reporter and tracks the termination handles
// produced by the actions it runs, so long-running work (recordings, test
// runs) can be stopped collectively on Close.
type Session struct {
	target   core.Target
	reporter core.Reporter
	logger   logging.Logger

	mu      sync.Mutex
	handles []core.TerminationHandle
}

// New creates a Session around a target with optional overrides.
func New(target core.Target, optFns ...func(o *Options)) *Session {
	opts := Options{
		Reporter: reporter.NewWriter(os.Stdout),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Session{
		target:   target,
		reporter: opts.Reporter,
		logger:   opts.Logger,
	}
}

// WithReporter sets the session's event reporter.
func WithReporter(rep core.Reporter) func(o *Options) {
	return func(o *Options) { o.Reporter = rep }
}

// WithLogger sets the session's operational logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Target returns the device the session is bound to.
func (s *Session) Target() core.Target { return s.target }

// Run dispatches and executes one action against the session's target. Any
// handles the result carries are tracked for Close; the result still exposes
// them for callers that want to terminate individually.
func (s *Session) Run(ctx context.Context, action core.Action) core.Result {
	start := time.Now()
	result := dispatch.RunAction(ctx, action, s.target, s.reporter)
	s.logger.Info("action completed",
		"kind", string(action.Kind()),
		"success", result.Success,
		"duration", time.Since(start),
	)

	if len(result.Handles) > 0 {
		s.mu.Lock()
		s.handles = append(s.handles, result.Handles...)
		s.mu.Unlock()
	}

	return result
}

// Handles returns a copy of the handles currently tracked by the session.
func (s *Session) Handles() []core.TerminationHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TerminationHandle(nil), s.handles...)
}

// Close terminates every tracked handle, returning the first error while
// still attempting the rest. A closed session can keep running actions; it
// simply starts tracking afresh.
func (s *Session) Close() error {
	s.mu.Lock()
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	var first error
	for _, h := range handles {
		if err := h.Terminate(); err != nil {
			s.logger.Warn("failed to terminate handle", "kind", h.HandleKind(), "error", err.Error())
			if first == nil {
				first = err
			}
		}
	}
	return first
}
