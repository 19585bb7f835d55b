package reporter

import "github.com/hupe1980/devicemesh/core"

// Multi fans every event out to several reporters in order.
type Multi struct {
	reporters []core.Reporter
}

// NewMulti constructs a fan-out reporter.
func NewMulti(reporters ...core.Reporter) *Multi {
	return &Multi{reporters: reporters}
}

// Report forwards a subject-shaped event to every reporter.
func (m *Multi) Report(name core.EventName, typ core.EventType, subject core.Subject) {
	for _, r := range m.reporters {
		r.Report(name, typ, subject)
	}
}

// ReportValue forwards a value-shaped event to every reporter.
func (m *Multi) ReportValue(name core.EventName, typ core.EventType, value any) {
	for _, r := range m.reporters {
		r.ReportValue(name, typ, value)
	}
}
