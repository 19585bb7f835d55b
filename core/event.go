package core

import "github.com/google/uuid"

// EventType classifies how an event relates to the lifetime of an operation.
type EventType string

const (
	// EventTypeStarted marks the beginning of a tracked operation. It is
	// always followed by a matching EventTypeEnded on the success path.
	EventTypeStarted EventType = "started"

	// EventTypeEnded marks the successful completion of a tracked operation.
	EventTypeEnded EventType = "ended"

	// EventTypeDiscrete reports a standalone fact that has no duration, such
	// as a single diagnostic entry. Discrete events are never bracketed.
	EventTypeDiscrete EventType = "discrete"
)

// EventName tags the operation an event belongs to.
type EventName string

const (
	// EventNameDiagnose tags diagnostic query operations.
	EventNameDiagnose EventName = "diagnose"
	// EventNameInstall tags application install operations.
	EventNameInstall EventName = "install"
	// EventNameUninstall tags application uninstall operations.
	EventNameUninstall EventName = "uninstall"
	// EventNameLaunch tags application launch operations.
	EventNameLaunch EventName = "launch"
	// EventNameLaunchXCTest tags test bundle launch operations.
	EventNameLaunchXCTest EventName = "launch_xctest"
	// EventNameListApps tags installed application listings.
	EventNameListApps EventName = "list_apps"
	// EventNameRecord tags video recording operations.
	EventNameRecord EventName = "record"
	// EventNameTerminate tags application kill operations.
	EventNameTerminate EventName = "terminate"
)

// Reporter is the sink for structured lifecycle events emitted while actions
// execute. One Reporter is bound to one target for the duration of a session;
// runners share it but never own it.
//
// Report tags a Subject with an event name and type. ReportValue is the
// variant for values that are directly JSON-serializable without a Subject
// wrapper, used for diagnostics results and record actions which report the
// action's own payload.
//
// Implementations must tolerate concurrent calls; runners themselves execute
// serially per target but multiple targets may share a backend.
type Reporter interface {
	Report(name EventName, typ EventType, subject Subject)
	ReportValue(name EventName, typ EventType, value any)
}

// NewID generates a new unique identifier for handles and sessions.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
