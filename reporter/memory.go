package reporter

import (
	"sync"

	"github.com/hupe1980/devicemesh/core"
)

// Event is one recorded reporter call. Exactly one of Subject and Value is
// populated, mirroring the Report/ReportValue split.
type Event struct {
	Name    core.EventName
	Type    core.EventType
	Subject core.Subject
	Value   any
}

// Memory is a volatile core.Reporter recording events in call order. It is
// safe for concurrent access and best suited for tests or ephemeral
// inspection of a session's event stream.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// NewMemory constructs an empty in-memory reporter.
func NewMemory() *Memory {
	return &Memory{}
}

// Report records a subject-shaped event.
func (m *Memory) Report(name core.EventName, typ core.EventType, subject core.Subject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{Name: name, Type: typ, Subject: subject})
}

// ReportValue records a value-shaped event.
func (m *Memory) ReportValue(name core.EventName, typ core.EventType, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{Name: name, Type: typ, Value: value})
}

// Events returns a copy of the recorded events in emission order.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Reset discards all recorded events.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
