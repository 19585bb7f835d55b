package dispatch

import (
	"fmt"

	"github.com/hupe1980/devicemesh/core"
)

// unimplementedRunner fails immediately for actions the dispatcher does not
// recognize. It reports nothing: failing fast means callers never see a
// Started event for work that will not happen.
type unimplementedRunner struct {
	message string
}

func newUnimplementedRunner(action core.Action, target core.Target) *unimplementedRunner {
	return &unimplementedRunner{
		message: fmt.Sprintf(
			"Action %s %s is unimplemented for target %s",
			action.EventName(), action.Subject(), target.Description(),
		),
	}
}

// Run returns the deterministic failure without side effects.
func (r *unimplementedRunner) Run() core.Result {
	return core.FailureResult(r.message)
}
