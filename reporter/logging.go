package reporter

import (
	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/logging"
)

// Logging forwards events to a logging.Logger at info level. Useful when the
// event stream should land in the same sink as operational logs.
type Logging struct {
	logger logging.Logger
}

// NewLogging constructs a Logging reporter. A nil logger is replaced by the
// no-op logger.
func NewLogging(logger logging.Logger) *Logging {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Logging{logger: logger}
}

// Report logs a subject-shaped event.
func (l *Logging) Report(name core.EventName, typ core.EventType, subject core.Subject) {
	l.logger.Info("event", "event_name", string(name), "event_type", string(typ), "subject", subject.String())
}

// ReportValue logs a value-shaped event.
func (l *Logging) ReportValue(name core.EventName, typ core.EventType, value any) {
	l.logger.Info("event", "event_name", string(name), "event_type", string(typ), "value", value)
}
