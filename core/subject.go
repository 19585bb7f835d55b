package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Subject is a serializable description of the entity an event refers to.
// Subjects must marshal to a structured JSON form for downstream consumers;
// String is used when a subject appears inside a human-readable message.
type Subject interface {
	json.Marshaler
	fmt.Stringer
}

// StringSubject wraps a plain string as a Subject.
type StringSubject string

// MarshalJSON implements json.Marshaler.
func (s StringSubject) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// String returns the wrapped string.
func (s StringSubject) String() string { return string(s) }

// ValueSubject wraps an arbitrary JSON-serializable value as a Subject.
type ValueSubject struct {
	Value any
}

// NewValueSubject creates a Subject from any JSON-serializable value.
func NewValueSubject(value any) ValueSubject { return ValueSubject{Value: value} }

// MarshalJSON implements json.Marshaler.
func (s ValueSubject) MarshalJSON() ([]byte, error) { return json.Marshal(s.Value) }

// String renders the wrapped value through its JSON form.
func (s ValueSubject) String() string {
	data, err := json.Marshal(s.Value)
	if err != nil {
		return fmt.Sprintf("%v", s.Value)
	}
	return string(data)
}

// CompositeSubject is an ordered collection of subjects reported together,
// used by diagnostics results where each matched diagnostic contributes one
// discrete subject.
type CompositeSubject []Subject

// NewCompositeSubject creates a CompositeSubject preserving order.
func NewCompositeSubject(subjects ...Subject) CompositeSubject { return CompositeSubject(subjects) }

// MarshalJSON implements json.Marshaler, rendering the subjects as a JSON array.
func (c CompositeSubject) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, 0, len(c))
	for _, s := range c {
		data, err := s.MarshalJSON()
		if err != nil {
			return nil, err
		}
		items = append(items, data)
	}
	return json.Marshal(items)
}

// String joins the component subjects for message contexts.
func (c CompositeSubject) String() string {
	parts := make([]string, 0, len(c))
	for _, s := range c {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ", ")
}
