package reporter

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/devicemesh/core"
)

// wireEvent is the serialized form of one reporter call: a single JSON
// object per line, newline-delimited, for downstream machine consumers.
type wireEvent struct {
	EventName core.EventName `json:"event_name"`
	EventType core.EventType `json:"event_type"`
	Subject   any            `json:"subject,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Writer is a core.Reporter that serializes each event as one JSON line to
// an io.Writer, typically stdout or a session log file. Serialization
// failures are swallowed: the event stream is observability, not control
// flow, and reporting must never disturb action execution.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
	enc *json.Encoder
}

// NewWriter constructs a Writer emitting to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, enc: json.NewEncoder(out)}
}

// Report serializes a subject-shaped event.
func (w *Writer) Report(name core.EventName, typ core.EventType, subject core.Subject) {
	w.emit(name, typ, subject)
}

// ReportValue serializes a value-shaped event.
func (w *Writer) ReportValue(name core.EventName, typ core.EventType, value any) {
	w.emit(name, typ, value)
}

func (w *Writer) emit(name core.EventName, typ core.EventType, subject any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.enc.Encode(wireEvent{
		EventName: name,
		EventType: typ,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
	})
}
