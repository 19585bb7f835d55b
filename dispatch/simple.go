package dispatch

import "github.com/hupe1980/devicemesh/core"

// simpleRunner executes a synchronous, zero-result capability call bracketed
// by Started/Ended events. An empty event name suppresses the bracket
// entirely; a non-nil value switches reporting from Report to ReportValue
// (used by record actions, which report the action payload itself).
type simpleRunner struct {
	reporter  core.Reporter
	name      core.EventName
	subject   core.Subject
	value     any
	operation func() error
}

func newSimpleRunner(reporter core.Reporter, name core.EventName, subject core.Subject, operation func() error) *simpleRunner {
	return &simpleRunner{reporter: reporter, name: name, subject: subject, operation: operation}
}

// Run reports Started, invokes the wrapped operation and reports Ended. A
// failing operation short-circuits the Ended event and becomes a failure
// message; no error escapes.
func (r *simpleRunner) Run() core.Result {
	r.report(core.EventTypeStarted)
	if err := r.operation(); err != nil {
		return core.FailureResult(core.FailureMessage(err))
	}
	r.report(core.EventTypeEnded)
	return core.SuccessResult()
}

func (r *simpleRunner) report(typ core.EventType) {
	reportEvent(r.reporter, r.name, typ, r.subject, r.value)
}

// reportEvent emits one lifecycle event, honoring the unnamed-action policy
// and the Report/ReportValue split.
func reportEvent(reporter core.Reporter, name core.EventName, typ core.EventType, subject core.Subject, value any) {
	if name == "" {
		return
	}
	if value != nil {
		reporter.ReportValue(name, typ, value)
		return
	}
	reporter.Report(name, typ, subject)
}
