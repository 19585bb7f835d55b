package dispatch

import "github.com/hupe1980/devicemesh/core"

// handledRunner executes a capability call that may leave behind a running
// operation. The returned handle, if any, is appended to the Result; from
// that point the caller owns it and must eventually terminate it.
type handledRunner struct {
	reporter  core.Reporter
	name      core.EventName
	subject   core.Subject
	value     any
	operation func() (core.TerminationHandle, error)
}

func newHandledRunner(reporter core.Reporter, name core.EventName, subject core.Subject, operation func() (core.TerminationHandle, error)) *handledRunner {
	return &handledRunner{reporter: reporter, name: name, subject: subject, operation: operation}
}

// Run brackets the wrapped operation exactly like the simple runner and
// transfers the produced handle, when present, into the Result.
func (r *handledRunner) Run() core.Result {
	r.report(core.EventTypeStarted)
	handle, err := r.operation()
	if err != nil {
		return core.FailureResult(core.FailureMessage(err))
	}
	r.report(core.EventTypeEnded)
	return core.SuccessResult().WithHandle(handle)
}

func (r *handledRunner) report(typ core.EventType) {
	reportEvent(r.reporter, r.name, typ, r.subject, r.value)
}
