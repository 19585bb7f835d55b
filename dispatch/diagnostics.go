package dispatch

import (
	"context"

	"github.com/hupe1980/devicemesh/core"
)

// diagnosticsRunner queries the target's diagnostics collection, applies the
// requested format transform to every match and reports each transformed
// diagnostic as one discrete event. Diagnostics are facts, not operations, so
// the individual results are never bracketed; only the query itself gets a
// Started/Ended pair.
type diagnosticsRunner struct {
	ctx      context.Context
	reporter core.Reporter
	target   core.Target
	action   core.DiagnoseAction
	// dir receives FormatPath materializations; empty means the system temp
	// directory.
	dir string
}

func newDiagnosticsRunner(ctx context.Context, reporter core.Reporter, target core.Target, action core.DiagnoseAction) *diagnosticsRunner {
	return &diagnosticsRunner{ctx: ctx, reporter: reporter, target: target, action: action}
}

// Run executes the query and returns a composite success with one subject per
// matched diagnostic. An empty match set is a success with zero subjects.
// Query and transform errors are categorized; either way no Ended event
// follows a failure.
func (r *diagnosticsRunner) Run() core.Result {
	r.reporter.ReportValue(core.EventNameDiagnose, core.EventTypeStarted, r.action)

	matched, err := r.target.QueryDiagnostics(r.ctx, r.action.Query)
	if err != nil {
		return core.FailureResult(core.FailureMessage(err))
	}

	transformed, err := r.action.Format.ApplyAll(matched, r.dir)
	if err != nil {
		return core.FailureResult(core.FailureMessage(core.WrapDeviceError("diagnose", err)))
	}

	subjects := make(core.CompositeSubject, 0, len(transformed))
	for _, d := range transformed {
		r.reporter.ReportValue(core.EventNameDiagnose, core.EventTypeDiscrete, d)
		subjects = append(subjects, core.NewValueSubject(d))
	}

	r.reporter.ReportValue(core.EventNameDiagnose, core.EventTypeEnded, r.action)

	return core.SubjectResult(subjects)
}
