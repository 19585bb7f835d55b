package core

import (
	"errors"
	"fmt"
)

// UnknownErrorMessage is the fixed failure message substituted for errors
// that carry no categorized description.
const UnknownErrorMessage = "Unknown Error"

// DeviceError is a categorized domain error raised by a target capability
// call. Its message is considered safe and useful to surface verbatim in a
// Result failure. Anything that is not a DeviceError is treated as
// uncategorized and collapsed to UnknownErrorMessage.
type DeviceError struct {
	Op  string // operation that failed, e.g. "install"
	Msg string // human-readable description
	Err error  // optional underlying cause
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return e.Msg
}

// Unwrap returns the underlying cause, if any.
func (e *DeviceError) Unwrap() error { return e.Err }

// NewDeviceError creates a categorized error for the given operation.
func NewDeviceError(op, msg string) *DeviceError {
	return &DeviceError{Op: op, Msg: msg}
}

// NewDeviceErrorf creates a categorized error with a formatted message.
func NewDeviceErrorf(op, format string, args ...any) *DeviceError {
	return &DeviceError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// WrapDeviceError categorizes an underlying error under the given operation,
// preserving it for errors.Is/As inspection.
func WrapDeviceError(op string, err error) *DeviceError {
	return &DeviceError{Op: op, Msg: err.Error(), Err: err}
}

// FailureMessage maps an error to the string that appears in a Result
// failure: the descriptive message for categorized errors, the fixed
// UnknownErrorMessage for everything else.
func FailureMessage(err error) string {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Error()
	}
	return UnknownErrorMessage
}
