package core

// Runner is a single-shot unit of execution built by the dispatcher for one
// action. Run executes the wrapped operation exactly once and converts every
// outcome, including errors raised by the target's capability calls, into a
// Result. No error value ever crosses this boundary.
//
// Runners are transient values: constructed per dispatch, discarded after
// Run returns. The framework makes no idempotence promise for Run; whether
// the wrapped action tolerates re-execution is the action's own affair.
type Runner interface {
	Run() Result
}
