// Package apperr carries validation failures as values so that a comparator
// can report what went wrong without aborting the rest of a run.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindMissingFile       Kind = "MISSING_FILE"
	KindSchemaMismatch    Kind = "SCHEMA_MISMATCH"
	KindInsufficientData  Kind = "INSUFFICIENT_DATA"
	KindParseError        Kind = "PARSE_ERROR"
	KindWriteError        Kind = "WRITE_ERROR"
	KindLogStructureError Kind = "LOG_STRUCTURE_ERROR"
	KindCanceled          Kind = "CANCELED"
	KindUnknown           Kind = "UNKNOWN"
)

// Error is a classified failure raised by one component, optionally tied to a zone.
type Error struct {
	Kind      Kind   `yaml:"kind"`
	Component string `yaml:"component"`
	Zone      int    `yaml:"zone,omitempty"` // 1-based, 0 when not zone specific
	Message   string `yaml:"message"`
	Cause     error  `yaml:"-"`
}

func (e *Error) Error() string {
	prefix := e.Component
	if e.Zone > 0 {
		prefix = fmt.Sprintf("%s zone %d", e.Component, e.Zone)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error without a cause.
func New(kind Kind, component, message string) *Error {
	return &Error{Kind: kind, Component: component, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, component, format string, args ...interface{}) *Error {
	return New(kind, component, fmt.Sprintf(format, args...))
}

// Wrap attaches a kind and component to err. A nil err yields nil.
// An *Error already carrying a kind keeps it.
func Wrap(err error, kind Kind, component, message string) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		kind = appErr.Kind
	}
	return &Error{Kind: kind, Component: component, Message: message, Cause: err}
}

// InZone returns a copy of e tied to the given 1-based zone.
func (e *Error) InZone(zone int) *Error {
	cp := *e
	cp.Zone = zone
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MarshalYAML renders the error with its cause flattened to text.
func (e *Error) MarshalYAML() (interface{}, error) {
	out := struct {
		Kind      Kind   `yaml:"kind"`
		Component string `yaml:"component"`
		Zone      int    `yaml:"zone,omitempty"`
		Message   string `yaml:"message"`
		Cause     string `yaml:"cause,omitempty"`
	}{Kind: e.Kind, Component: e.Component, Zone: e.Zone, Message: e.Message}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	return out, nil
}
